package crawler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/strategy-cli/pkg/firecrawl"
)

// fakeProvider scripts the crawl provider for analyzer tests.
type fakeProvider struct {
	crawlResp  *firecrawl.CrawlResponse
	crawlErr   error
	statusResp []firecrawl.CrawlStatusResponse
	statusErr  error
	statusIdx  int

	gotReq firecrawl.CrawlRequest
}

func (f *fakeProvider) Crawl(_ context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	f.gotReq = req
	return f.crawlResp, f.crawlErr
}

func (f *fakeProvider) GetCrawlStatus(_ context.Context, _ string) (*firecrawl.CrawlStatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	i := f.statusIdx
	if i >= len(f.statusResp) {
		i = len(f.statusResp) - 1
	}
	f.statusIdx++
	resp := f.statusResp[i]
	return &resp, nil
}

func (f *fakeProvider) Scrape(_ context.Context, _ firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	return nil, eris.New("not implemented")
}

func TestAnalyzeNormalizesURL(t *testing.T) {
	provider := &fakeProvider{
		crawlResp: &firecrawl.CrawlResponse{Success: true, Data: []firecrawl.PageData{
			{URL: "https://example.com/", HTML: richHTML()},
		}},
	}
	a := NewAnalyzer(provider)

	result := a.Analyze(context.Background(), "example.com")
	assert.Equal(t, "https://example.com", provider.gotReq.URL)
	assert.Equal(t, "https://example.com", result.URL)
}

func TestAnalyzeInlineSubstantialContent(t *testing.T) {
	provider := &fakeProvider{
		crawlResp: &firecrawl.CrawlResponse{Success: true, Data: []firecrawl.PageData{
			{
				URL:  "https://example.com/",
				HTML: richHTML(),
				Metadata: firecrawl.PageMetadata{
					Description: "Example Inc builds marketing strategy software for agencies.",
				},
			},
		}},
	}
	a := NewAnalyzer(provider, WithPageLimit(5))

	result := a.Analyze(context.Background(), "https://example.com")
	require.True(t, result.Success)
	assert.True(t, result.ContentExtracted)
	assert.Equal(t, 1, result.PagesCrawled)
	assert.Equal(t, "Example Inc builds marketing strategy software for agencies.", result.Summary)
	assert.Equal(t, 5, provider.gotReq.Limit)
}

func TestAnalyzeJobPolledToCompletion(t *testing.T) {
	provider := &fakeProvider{
		crawlResp: &firecrawl.CrawlResponse{Success: true, ID: "job-9"},
		statusResp: []firecrawl.CrawlStatusResponse{
			{Status: firecrawl.StatusScraping},
			{Status: firecrawl.StatusCompleted, Data: []firecrawl.PageData{
				{URL: "https://example.com/", Content: strings.Repeat("product copy for the landing page ", 10)},
			}},
		},
	}
	a := NewAnalyzer(provider, WithPollOptions(firecrawl.WithPollInterval(time.Millisecond)))

	result := a.Analyze(context.Background(), "https://example.com")
	require.True(t, result.Success)
	assert.True(t, result.ContentExtracted)
	assert.Equal(t, firecrawl.StatusCompleted, result.Status)
}

func TestAnalyzeInsubstantialFallsBack(t *testing.T) {
	// One page with 50-char HTML classifies as insubstantial
	// and degrades to the protection fallback.
	provider := &fakeProvider{
		crawlResp: &firecrawl.CrawlResponse{Success: true, Data: []firecrawl.PageData{
			{URL: "https://example.com/", HTML: "<html><body><p>tiny</p></body></html>"},
		}},
	}
	a := NewAnalyzer(provider)

	result := a.Analyze(context.Background(), "example.com")
	require.True(t, result.Success)
	assert.False(t, result.ContentExtracted)
	assert.Contains(t, result.Summary, "Example")
	assert.Contains(t, result.Summary, "example.com")
	require.NotEmpty(t, result.Technologies)
	assert.Equal(t, SentinelWebsiteProtection, result.Technologies[0])
}

func TestAnalyzeTransportFailure(t *testing.T) {
	provider := &fakeProvider{crawlErr: eris.New("connection refused")}
	a := NewAnalyzer(provider)

	result := a.Analyze(context.Background(), "https://example.com")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection refused")
}

func TestAnalyzeJobFailedUsesContentProtectionSentinel(t *testing.T) {
	provider := &fakeProvider{
		crawlResp:  &firecrawl.CrawlResponse{Success: true, ID: "job-9"},
		statusResp: []firecrawl.CrawlStatusResponse{{Status: firecrawl.StatusFailed}},
	}
	a := NewAnalyzer(provider, WithPollOptions(firecrawl.WithPollInterval(time.Millisecond)))

	result := a.Analyze(context.Background(), "https://example.com")
	require.True(t, result.Success)
	assert.False(t, result.ContentExtracted)
	assert.Equal(t, SentinelContentProtection, result.Technologies[0])
}

func TestAnalyzeTimeoutWithoutPagesUsesJSRenderingSentinel(t *testing.T) {
	provider := &fakeProvider{
		crawlResp:  &firecrawl.CrawlResponse{Success: true, ID: "job-9"},
		statusResp: []firecrawl.CrawlStatusResponse{{Status: firecrawl.StatusScraping}},
	}
	a := NewAnalyzer(provider, WithPollOptions(
		firecrawl.WithPollInterval(time.Millisecond),
		firecrawl.WithMaxAttempts(2),
	))

	result := a.Analyze(context.Background(), "https://example.com")
	require.True(t, result.Success)
	assert.False(t, result.ContentExtracted)
	assert.Equal(t, SentinelJSRendering, result.Technologies[0])
}

func TestAnalyzeTimeoutWithPartialPages(t *testing.T) {
	provider := &fakeProvider{
		crawlResp: &firecrawl.CrawlResponse{Success: true, ID: "job-9"},
		statusResp: []firecrawl.CrawlStatusResponse{{
			Status: firecrawl.StatusScraping,
			Data: []firecrawl.PageData{
				{URL: "https://example.com/", Content: strings.Repeat("partial but meaningful landing copy ", 10)},
			},
		}},
	}
	a := NewAnalyzer(provider, WithPollOptions(
		firecrawl.WithPollInterval(time.Millisecond),
		firecrawl.WithMaxAttempts(2),
	))

	result := a.Analyze(context.Background(), "https://example.com")
	require.True(t, result.Success)
	assert.True(t, result.ContentExtracted)
	assert.Equal(t, firecrawl.StatusTimeout, result.Status)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com  ", "https://example.com"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

func TestConvertPagesBackfillsMetadata(t *testing.T) {
	pages := convertPages([]firecrawl.PageData{{
		URL:  "https://example.com/",
		HTML: `<html><head><title>Acme</title><meta name="description" content="From the raw HTML."></head><body></body></html>`,
	}})
	require.Len(t, pages, 1)
	assert.Equal(t, "Acme", pages[0].Metadata.Title)
	assert.Equal(t, "From the raw HTML.", pages[0].Metadata.Description)
}
