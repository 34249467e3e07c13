package model

import "time"

// URLType distinguishes which strategy URL a crawl result belongs to.
type URLType string

const (
	URLTypeWebsite URLType = "website"
	URLTypeProduct URLType = "product"
)

// PageMetadata holds document metadata recovered for a crawled page.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// Page is the raw provider output for a single crawled page. Never mutated
// after creation.
type Page struct {
	URL      string            `json:"url"`
	HTML     string            `json:"html,omitempty"`
	Markdown string            `json:"markdown,omitempty"`
	Content  string            `json:"content,omitempty"`
	Metadata PageMetadata      `json:"metadata"`
	Headers  map[string]string `json:"headers,omitempty"`
}

// Text returns the best available plain-text body of the page.
func (p Page) Text() string {
	if p.Content != "" {
		return p.Content
	}
	return p.Markdown
}

// CrawlResult is the outcome of analyzing one URL. Immutable once produced;
// persisted keyed by (strategy, url type).
type CrawlResult struct {
	ID               string    `json:"id,omitempty"`
	Success          bool      `json:"success"`
	URL              string    `json:"url"`
	Status           string    `json:"status,omitempty"`
	PagesCrawled     int       `json:"pages_crawled"`
	ContentExtracted bool      `json:"content_extracted"`
	Summary          string    `json:"summary"`
	Keywords         []string  `json:"keywords_found"`
	Technologies     []string  `json:"technologies_detected"`
	Pages            []Page    `json:"data,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}
