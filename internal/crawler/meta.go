package crawler

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLMeta holds metadata recovered from a raw HTML document.
type HTMLMeta struct {
	Title       string
	Description string
	Keywords    string
}

// ParseHTMLMeta extracts the title and meta description/keywords tags from
// raw HTML. Used to backfill page metadata when the provider returns HTML
// without a parsed metadata block. Parse errors yield an empty result; the
// tokenizer tolerates malformed markup.
func ParseHTMLMeta(rawHTML string) HTMLMeta {
	var meta HTMLMeta

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return meta
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if meta.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name", "property":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				switch name {
				case "description", "og:description":
					if meta.Description == "" {
						meta.Description = strings.TrimSpace(content)
					}
				case "keywords":
					if meta.Keywords == "" {
						meta.Keywords = strings.TrimSpace(content)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return meta
}
