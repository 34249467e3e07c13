package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandpulse/strategy-cli/internal/model"
)

func TestDetectTechnologiesFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"wordpress", `<script src="/wp-content/plugins/x.js"></script>`, "WordPress"},
		{"shopify", `<img src="https://cdn.shopify.com/s/files/x.png">`, "Shopify"},
		{"nextjs", `<script src="/_next/static/chunks/main.js"></script>`, "Next.js"},
		{"react", `<div data-reactroot=""></div>`, "React"},
		{"case insensitive", `<SCRIPT SRC="/WP-CONTENT/X.JS"></SCRIPT>`, "WordPress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectTechnologies([]model.Page{{URL: "https://example.com/", HTML: tt.html}})
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestDetectTechnologiesFromHeaders(t *testing.T) {
	pages := []model.Page{{
		URL: "https://example.com/",
		Headers: map[string]string{
			"X-Powered-By": "PHP/8.2",
			"Server":       "nginx/1.25",
		},
	}}
	got := DetectTechnologies(pages)
	assert.Contains(t, got, "PHP")
	assert.Contains(t, got, "Nginx")
}

func TestDetectTechnologiesFromURL(t *testing.T) {
	pages := []model.Page{
		{URL: "https://shop.myshopify.com/products"},
		{URL: "https://example.com/wp-content/uploads/logo.png"},
	}
	got := DetectTechnologies(pages)
	assert.Contains(t, got, "Shopify")
	assert.Contains(t, got, "WordPress")
}

func TestDetectTechnologiesDeduplicates(t *testing.T) {
	pages := []model.Page{
		{URL: "https://example.com/wp-content/a", HTML: "wp-includes wordpress"},
		{URL: "https://example.com/wp-content/b", HTML: "wp-content"},
	}
	got := DetectTechnologies(pages)

	count := 0
	for _, tech := range got {
		if tech == "WordPress" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDetectTechnologiesEmpty(t *testing.T) {
	assert.Empty(t, DetectTechnologies(nil))
	assert.Empty(t, DetectTechnologies([]model.Page{{URL: "https://example.com/", HTML: "<html><body>plain</body></html>"}}))
}
