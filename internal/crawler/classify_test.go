package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandpulse/strategy-cli/internal/model"
)

func richHTML() string {
	return "<html><body>" + strings.Repeat("<div><p>Marketing automation for growing teams.</p></div>", 40) + "</body></html>"
}

func TestHasSubstantialContent(t *testing.T) {
	tests := []struct {
		name  string
		pages []model.Page
		want  bool
	}{
		{
			name: "rich html page",
			pages: []model.Page{
				{URL: "https://example.com/", HTML: richHTML()},
			},
			want: true,
		},
		{
			name: "long plain content",
			pages: []model.Page{
				{URL: "https://example.com/", Content: strings.Repeat("useful product copy ", 20)},
			},
			want: true,
		},
		{
			name: "long markdown counts as content",
			pages: []model.Page{
				{URL: "https://example.com/", Markdown: strings.Repeat("## Features and benefits ", 15)},
			},
			want: true,
		},
		{
			name: "single good page redeems the batch",
			pages: []model.Page{
				{URL: "https://example.com/a", HTML: "<html></html>"},
				{URL: "https://example.com/b", Content: "short"},
				{URL: "https://example.com/c", HTML: richHTML()},
			},
			want: true,
		},
		{
			name: "tiny html",
			pages: []model.Page{
				{URL: "https://example.com/", HTML: "<html><p>hi</p></html>"},
			},
			want: false,
		},
		{
			name: "html without paragraph markers",
			pages: []model.Page{
				{URL: "https://example.com/", HTML: "<html>" + strings.Repeat("<span>x</span>", 200) + "</html>"},
			},
			want: false,
		},
		{
			name: "blocked phrase in content",
			pages: []model.Page{
				{URL: "https://example.com/", Content: "Access Denied. " + strings.Repeat("You do not have permission to view this resource. ", 10)},
			},
			want: false,
		},
		{
			name: "404 shell",
			pages: []model.Page{
				{URL: "https://example.com/", Content: "404 " + strings.Repeat("the page you requested could not be located on this server ", 8)},
			},
			want: false,
		},
		{
			name:  "empty batch",
			pages: nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSubstantialContent(tt.pages))
		})
	}
}
