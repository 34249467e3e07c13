// Package crawler turns a target URL into a CrawlResult: it requests a crawl
// from the provider, polls the job to completion, judges whether the pages
// carry substantial content, and derives summary, keywords, and detected
// technologies. Uncooperative sites degrade to a heuristic fallback result
// instead of an error.
package crawler

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandpulse/strategy-cli/internal/model"
	"github.com/brandpulse/strategy-cli/pkg/firecrawl"
)

const (
	defaultPageLimit = 10
	defaultTimeoutMs = 30000
)

var defaultFormats = []string{"html", "markdown"}

// Analyzer runs the crawl-and-extract pipeline against the provider.
type Analyzer struct {
	client    firecrawl.Client
	limit     int
	formats   []string
	timeoutMs int
	pollOpts  []firecrawl.PollOption
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPageLimit caps the number of pages requested per crawl.
func WithPageLimit(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.limit = n
	}
}

// WithFormats overrides the extraction formats requested from the provider.
func WithFormats(formats []string) AnalyzerOption {
	return func(a *Analyzer) {
		a.formats = formats
	}
}

// WithScrapeTimeout sets the per-page provider timeout in milliseconds.
func WithScrapeTimeout(ms int) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeoutMs = ms
	}
}

// WithPollOptions passes poll tuning through to the job status loop.
func WithPollOptions(opts ...firecrawl.PollOption) AnalyzerOption {
	return func(a *Analyzer) {
		a.pollOpts = opts
	}
}

// NewAnalyzer creates an Analyzer over the given provider client.
func NewAnalyzer(client firecrawl.Client, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		client:    client,
		limit:     defaultPageLimit,
		formats:   defaultFormats,
		timeoutMs: defaultTimeoutMs,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizeURL prefixes https:// when the URL carries no scheme.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.Contains(trimmed, "://") {
		return trimmed
	}
	return "https://" + trimmed
}

// Analyze crawls the URL and produces a CrawlResult. It never returns an
// error: transport and provider failures come back as Success=false, and
// content-quality failures come back as a fallback result with Success=true.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) *model.CrawlResult {
	target := NormalizeURL(rawURL)

	resp, err := a.client.Crawl(ctx, firecrawl.CrawlRequest{
		URL:   target,
		Limit: a.limit,
		ScrapeOptions: &firecrawl.ScrapeOptions{
			Formats: a.formats,
			Timeout: a.timeoutMs,
		},
	})
	if err != nil {
		return failureResult(target, eris.Wrap(err, "crawler: start crawl"))
	}

	pages := convertPages(resp.Data)
	status := firecrawl.StatusCompleted

	// A job id instead of inline data means the provider queued the crawl;
	// poll until a terminal status or the attempt budget runs out.
	if resp.ID != "" {
		polled, err := firecrawl.PollCrawl(ctx, a.client, resp.ID, a.pollOpts...)
		if err != nil {
			return failureResult(target, eris.Wrap(err, "crawler: poll crawl"))
		}
		status = polled.Status
		pages = convertPages(polled.Data)
	}

	zap.L().Info("crawler: crawl finished",
		zap.String("url", target),
		zap.String("status", status),
		zap.Int("pages", len(pages)),
	)

	if status == firecrawl.StatusFailed {
		return FallbackResult(target, pages, SentinelContentProtection)
	}
	if status == firecrawl.StatusTimeout && len(pages) == 0 {
		return FallbackResult(target, pages, SentinelJSRendering)
	}

	if !HasSubstantialContent(pages) {
		return FallbackResult(target, pages, SentinelWebsiteProtection)
	}

	return &model.CrawlResult{
		Success:          true,
		URL:              target,
		Status:           status,
		PagesCrawled:     len(pages),
		ContentExtracted: true,
		Summary:          ExtractSummary(pages),
		Keywords:         ExtractKeywords(pages),
		Technologies:     DetectTechnologies(pages),
		Pages:            pages,
	}
}

func failureResult(url string, err error) *model.CrawlResult {
	zap.L().Warn("crawler: crawl failed", zap.String("url", url), zap.Error(err))
	return &model.CrawlResult{
		Success: false,
		URL:     url,
		Error:   err.Error(),
	}
}

// convertPages maps provider page data into model pages, recovering missing
// metadata from the raw HTML where possible.
func convertPages(data []firecrawl.PageData) []model.Page {
	pages := make([]model.Page, 0, len(data))
	for _, d := range data {
		p := model.Page{
			URL:      d.URL,
			HTML:     d.HTML,
			Markdown: d.Markdown,
			Content:  d.Content,
			Metadata: model.PageMetadata{
				Title:       d.Metadata.Title,
				Description: d.Metadata.Description,
				Keywords:    d.Metadata.Keywords,
			},
			Headers: d.Headers,
		}
		if p.HTML != "" && (p.Metadata.Title == "" || p.Metadata.Description == "") {
			meta := ParseHTMLMeta(p.HTML)
			if p.Metadata.Title == "" {
				p.Metadata.Title = meta.Title
			}
			if p.Metadata.Description == "" {
				p.Metadata.Description = meta.Description
			}
			if p.Metadata.Keywords == "" {
				p.Metadata.Keywords = meta.Keywords
			}
		}
		pages = append(pages, p)
	}
	return pages
}
