package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefingReply = `Here is your marketing briefing.

Key Subtopics:
1. Brand positioning
2. Channel mix
- Audience segmentation

Content Ideas:
1) How-to guides for campaign planning
2) Case study series

keywords:
- marketing automation
- campaign planning

Closing remarks that are not list items.`

func TestParseBriefing(t *testing.T) {
	result := Parse("briefing", briefingReply)

	require.True(t, result.Structured())
	assert.Empty(t, result.RawOutput)

	assert.Equal(t, []string{
		"Brand positioning",
		"Channel mix",
		"Audience segmentation",
	}, result.Items("key_subtopics"))

	assert.Equal(t, []string{
		"How-to guides for campaign planning",
		"Case study series",
	}, result.Items("content_ideas"))

	// Header matching is case-insensitive.
	assert.Equal(t, []string{
		"marketing automation",
		"campaign planning",
	}, result.Items("keywords"))
}

func TestParseMissingSectionIsEmptyNotError(t *testing.T) {
	text := `Key Subtopics:
1. Only subtopics here`

	result := Parse("briefing", text)
	require.True(t, result.Structured())
	assert.Equal(t, []string{"Only subtopics here"}, result.Items("key_subtopics"))
	// No "Keywords:" section: empty list, never a failure.
	assert.Empty(t, result.Items("keywords"))
	assert.NotNil(t, result.Items("keywords"))
}

func TestParseUnstructuredFallsBackToRaw(t *testing.T) {
	text := "The model decided to answer in prose without any of the expected headers."

	result := Parse("briefing", text)
	assert.False(t, result.Structured())
	assert.Equal(t, text, result.RawOutput)
}

func TestParseUnknownModuleFallsBackToRaw(t *testing.T) {
	result := Parse("mystery", "Keywords:\n- something")
	assert.False(t, result.Structured())
	assert.NotEmpty(t, result.RawOutput)
}

func TestParsePersonaRepeatedHeadersAccumulate(t *testing.T) {
	text := `Persona Name:
- Agency Anna
Goals:
- Grow retainer clients
Pain Points:
- Manual reporting

Persona Name:
- Freelance Femi
Goals:
- Win bigger projects
Pain Points:
- Inconsistent pipeline`

	result := Parse("persona", text)
	require.True(t, result.Structured())
	assert.Equal(t, []string{"Agency Anna", "Freelance Femi"}, result.Items("persona_name"))
	assert.Equal(t, []string{"Grow retainer clients", "Win bigger projects"}, result.Items("goals"))
	assert.Equal(t, []string{"Manual reporting", "Inconsistent pipeline"}, result.Items("pain_points"))
}

func TestParseIgnoresNonListLines(t *testing.T) {
	text := `Content Ideas:
Some prose introduction the model added.
1. Actual idea
More prose.
2. Second idea`

	result := Parse("content_ideas", text)
	assert.Equal(t, []string{"Actual idea", "Second idea"}, result.Items("content_ideas"))
}

func TestParseEmptyText(t *testing.T) {
	result := Parse("briefing", "   ")
	assert.False(t, result.Structured())
}

func TestSectionKey(t *testing.T) {
	assert.Equal(t, "content_ideas", sectionKey("Content Ideas:"))
	assert.Equal(t, "keywords", sectionKey("Keywords:"))
	assert.Equal(t, "technical_recommendations", sectionKey("Technical Recommendations:"))
}
