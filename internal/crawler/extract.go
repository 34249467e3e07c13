package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/brandpulse/strategy-cli/internal/model"
)

const (
	summaryMaxLen      = 300
	minDescriptionLen  = 30
	maxKeywords        = 15
	minKeywordLen      = 3
	keywordTargetFloor = 5
)

// noSummaryFallback is the terminal fallback when pages carried content but
// nothing summarizable.
const noSummaryFallback = "Content was extracted but no meaningful summary could be generated."

// ExtractSummary derives a short summary from crawled pages, preferring:
// a meta description, then homepage content, then the first pages' content,
// then a title-only sentence, then a fixed fallback string.
func ExtractSummary(pages []model.Page) string {
	for _, p := range pages {
		desc := strings.TrimSpace(p.Metadata.Description)
		if len(desc) > minDescriptionLen {
			return truncate(desc, summaryMaxLen)
		}
	}

	for _, p := range pages {
		if !isHomePage(p.URL) {
			continue
		}
		if text := strings.TrimSpace(p.Text()); text != "" {
			return truncate(text, summaryMaxLen)
		}
	}

	var parts []string
	for i, p := range pages {
		if i >= 3 {
			break
		}
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	if combined := strings.Join(parts, " "); strings.TrimSpace(combined) != "" {
		return truncate(combined, summaryMaxLen)
	}

	for _, p := range pages {
		if title := strings.TrimSpace(p.Metadata.Title); title != "" {
			return fmt.Sprintf("The website is titled %q but no page content could be extracted.", title)
		}
	}

	return noSummaryFallback
}

// isHomePage treats URLs ending in "/", ending in "/index.html", or carrying
// no path at all as the site's home page.
func isHomePage(pageURL string) bool {
	if strings.HasSuffix(pageURL, "/") || strings.HasSuffix(pageURL, "/index.html") {
		return true
	}
	// A scheme-less bare host like "example.com" parses as a path, so check
	// for a path separator before trusting url.Parse.
	stripped := strings.TrimPrefix(strings.TrimPrefix(pageURL, "https://"), "http://")
	if !strings.Contains(stripped, "/") {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return u.Path == "" || u.Path == "/"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ExtractKeywords collects keywords from explicit page metadata, then title
// word frequency, then first-page content frequency when still sparse.
// The result is deduplicated case-insensitively and capped at 15.
func ExtractKeywords(pages []model.Page) []string {
	var keywords []string

	for _, p := range pages {
		for _, token := range strings.Split(p.Metadata.Keywords, ",") {
			token = strings.TrimSpace(token)
			if len(token) > 2 {
				keywords = append(keywords, token)
			}
		}
	}

	for _, p := range pages {
		keywords = append(keywords, ExtractCommonWords(p.Metadata.Title, 3)...)
	}

	if len(dedupe(keywords)) < keywordTargetFloor && len(pages) > 0 {
		keywords = append(keywords, ExtractCommonWords(pages[0].Text(), 5)...)
	}

	keywords = dedupe(keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

var wordPattern = regexp.MustCompile(`\b[a-zA-Z0-9]{3,}\b`)
var numericPattern = regexp.MustCompile(`^[0-9]+$`)

// stopWords excludes common English and German filler words from frequency
// ranking.
var stopWords = map[string]struct{}{
	// English
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "your": {}, "with": {}, "have": {}, "this": {},
	"will": {}, "that": {}, "they": {}, "from": {}, "been": {}, "more": {},
	"when": {}, "what": {}, "them": {}, "then": {}, "than": {}, "were": {},
	"there": {}, "their": {}, "would": {}, "which": {}, "about": {},
	"into": {}, "also": {}, "other": {}, "some": {}, "such": {}, "only": {},
	"most": {}, "over": {}, "here": {}, "just": {}, "like": {}, "how": {},
	"who": {}, "its": {}, "has": {}, "had": {}, "his": {}, "she": {},
	"him": {}, "get": {}, "new": {}, "use": {},
	// German
	"der": {}, "die": {}, "das": {}, "und": {}, "ist": {}, "von": {},
	"mit": {}, "auf": {}, "den": {}, "des": {}, "dem": {}, "ein": {},
	"eine": {}, "einen": {}, "einer": {}, "sich": {}, "auch": {},
	"nicht": {}, "oder": {}, "aber": {}, "wir": {}, "sie": {},
	"ihre": {}, "ihr": {}, "bei": {}, "aus": {}, "als": {}, "wie": {},
	"werden": {}, "wird": {}, "sind": {}, "haben": {}, "durch": {},
	"nach": {}, "unsere": {}, "mehr": {}, "alle": {}, "können": {},
	"über": {}, "für": {}, "zum": {}, "zur": {}, "uns": {},
}

// ExtractCommonWords tokenizes text into 3+ character alphanumeric words,
// drops stop words and pure numbers, and returns the top n by descending
// frequency. Ties keep first-seen order (stable sort).
func ExtractCommonWords(text string, n int) []string {
	if text == "" || n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, raw := range wordPattern.FindAllString(text, -1) {
		word := strings.ToLower(raw)
		if _, stop := stopWords[word]; stop {
			continue
		}
		if numericPattern.MatchString(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	// Stable selection sort by count keeps insertion order for ties.
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// dedupe removes duplicates case-insensitively, keeping first occurrences.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
