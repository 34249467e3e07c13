package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHTMLMeta(t *testing.T) {
	doc := `<!DOCTYPE html>
<html>
<head>
  <title>Acme — Marketing Automation</title>
  <meta name="description" content="Acme helps agencies automate campaign planning.">
  <meta name="keywords" content="marketing, automation, campaigns">
</head>
<body><p>hi</p></body>
</html>`

	meta := ParseHTMLMeta(doc)
	assert.Equal(t, "Acme — Marketing Automation", meta.Title)
	assert.Equal(t, "Acme helps agencies automate campaign planning.", meta.Description)
	assert.Equal(t, "marketing, automation, campaigns", meta.Keywords)
}

func TestParseHTMLMetaOGDescriptionFallback(t *testing.T) {
	doc := `<html><head><meta property="og:description" content="Social description."></head></html>`
	meta := ParseHTMLMeta(doc)
	assert.Equal(t, "Social description.", meta.Description)
}

func TestParseHTMLMetaMalformed(t *testing.T) {
	meta := ParseHTMLMeta("<html><head><title>Broken")
	assert.Equal(t, "Broken", meta.Title)

	assert.Empty(t, ParseHTMLMeta("").Title)
}
