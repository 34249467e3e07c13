// Package parser extracts structured records from the model's free-text
// replies. Parsing is heuristic by design: replies that match none of the
// expected headers degrade to a raw-output passthrough instead of an error.
package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// moduleHeaders lists the section headers each generation module's reply is
// expected to carry. Headers are matched case-insensitively at line starts.
var moduleHeaders = map[string][]string{
	"briefing":      {"Key Subtopics:", "Content Ideas:", "Keywords:"},
	"persona":       {"Persona Name:", "Goals:", "Pain Points:"},
	"seo":           {"Keywords:", "Content Ideas:", "Technical Recommendations:"},
	"content_ideas": {"Content Ideas:", "Keywords:"},
}

// bulletPattern matches numbered or bulleted list lines and captures the
// item text.
var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)

// Result is the parsed shape of one model reply. When no known section was
// found, Sections is empty and RawOutput carries the reply verbatim; the
// caller must handle both shapes.
type Result struct {
	Module    string              `json:"module"`
	Sections  map[string][]string `json:"sections,omitempty"`
	RawOutput string              `json:"raw_output,omitempty"`
}

// Items returns the list items parsed under a header, by normalized key
// (e.g. "keywords", "content_ideas"). Always non-nil for known module
// headers, so a missing "Keywords:" section reads as an empty list.
func (r Result) Items(key string) []string {
	if items, ok := r.Sections[key]; ok {
		return items
	}
	return []string{}
}

// Structured reports whether any section was recognized.
func (r Result) Structured() bool {
	return len(r.Sections) > 0
}

// Parse extracts the module's expected sections from raw model text. Each
// section spans from its header to the next known header or end of text;
// only numbered/bulleted lines become items. Unknown modules and unmatched
// replies return a raw passthrough.
func Parse(module, text string) Result {
	result := Result{Module: module}

	headers, ok := moduleHeaders[module]
	if !ok || strings.TrimSpace(text) == "" {
		result.RawOutput = text
		return result
	}

	type span struct {
		header string
		start  int // byte offset just past the header
		at     int // byte offset of the header itself
	}
	var spans []span
	for _, header := range headers {
		re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(header))
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{header: header, start: loc[1], at: loc[0]})
		}
	}
	if len(spans) == 0 {
		zap.L().Debug("parser: no recognizable sections, passing raw output through",
			zap.String("module", module),
		)
		result.RawOutput = text
		return result
	}

	// Order spans by position so each section ends where the next begins.
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].at < spans[j-1].at; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}

	result.Sections = make(map[string][]string, len(headers))
	for _, header := range headers {
		result.Sections[sectionKey(header)] = []string{}
	}

	for i, s := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].at
		}
		key := sectionKey(s.header)
		result.Sections[key] = append(result.Sections[key], parseItems(text[s.start:end])...)
	}

	return result
}

// parseItems keeps only bulleted or numbered lines from a section body.
func parseItems(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

// sectionKey normalizes a header into a stable snake_case key:
// "Content Ideas:" → "content_ideas".
func sectionKey(header string) string {
	key := strings.TrimSuffix(strings.TrimSpace(header), ":")
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, " ", "_")
}
