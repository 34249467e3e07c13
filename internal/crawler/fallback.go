package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// Sentinel technology markers describing why the fallback path engaged.
const (
	SentinelWebsiteProtection = "Website Protection"
	SentinelContentProtection = "Content Protection"
	SentinelJSRendering       = "JavaScript Rendering"
)

var titleCaser = cases.Title(language.English)

// FallbackResult builds a degraded-but-presentable CrawlResult for a site
// whose crawl yielded no substantial content. It always reports Success=true
// with ContentExtracted=false and a non-empty Summary, so the caller never
// shows a hard failure for a merely uncooperative site.
func FallbackResult(rawURL string, pages []model.Page, sentinel string) *model.CrawlResult {
	domain := parseDomain(rawURL)
	company := companyNameFromDomain(domain)

	technologies := append([]string{sentinel}, DetectTechnologies(pages)...)
	technologies = dedupe(technologies)

	summary := fmt.Sprintf(
		"%s (%s) appears to be protected against automated crawling, so its content could not be analyzed in depth.",
		company, domain,
	)
	if desc := firstMetaDescription(pages); desc != "" {
		summary += " Site description: " + desc
	}

	return &model.CrawlResult{
		Success:          true,
		URL:              rawURL,
		PagesCrawled:     len(pages),
		ContentExtracted: false,
		Summary:          summary,
		Keywords:         ExtractKeywords(pages),
		Technologies:     technologies,
		Pages:            pages,
	}
}

// parseDomain extracts the hostname, falling back to the raw string when URL
// parsing fails or yields no host.
func parseDomain(rawURL string) string {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

// companyNameFromDomain guesses a display name from the second-to-last
// dot-separated label: www.acme.io → Acme.
func companyNameFromDomain(domain string) string {
	labels := strings.Split(domain, ".")
	name := domain
	if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}
	return titleCaser.String(name)
}

func firstMetaDescription(pages []model.Page) string {
	for _, p := range pages {
		if d := strings.TrimSpace(p.Metadata.Description); d != "" {
			return d
		}
	}
	return ""
}
