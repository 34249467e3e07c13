package crawler

import (
	"strings"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// Substantial-content thresholds. These are heuristics tuned on real crawl
// output; both false positives and false negatives are acceptable because
// the fallback summarizer masks classifier misses.
const (
	minHTMLLen    = 500
	minTotalLen   = 1000
	minContentLen = 200
)

// blockedPhrases marks pages that came back as error or denial shells.
var blockedPhrases = []string{
	"access denied",
	"404",
	"not found",
}

// HasSubstantialContent reports whether any page in the batch carries enough
// extractable content to summarize. A single good page redeems an otherwise
// empty crawl.
func HasSubstantialContent(pages []model.Page) bool {
	for _, p := range pages {
		if pageSubstantial(p) {
			return true
		}
	}
	return false
}

func pageSubstantial(p model.Page) bool {
	if len(p.HTML) > minHTMLLen &&
		strings.Contains(p.HTML, "<div") &&
		strings.Contains(p.HTML, "<p") &&
		len(p.HTML) > minTotalLen {
		return true
	}

	content := strings.TrimSpace(p.Text())
	if len(content) <= minContentLen {
		return false
	}
	lower := strings.ToLower(content)
	for _, phrase := range blockedPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}
