package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/strategy-cli/internal/model"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"company=Acme", "tone=formal", "url=https://acme.com?a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"company": "Acme",
		"tone":    "formal",
		"url":     "https://acme.com?a=b",
	}, vars)
}

func TestParseVars_Invalid(t *testing.T) {
	_, err := parseVars([]string{"no-equals-sign"})
	assert.Error(t, err)

	_, err = parseVars([]string{"=value"})
	assert.Error(t, err)
}

func TestParseVars_Empty(t *testing.T) {
	vars, err := parseVars(nil)
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestFormatGenerationList(t *testing.T) {
	var buf bytes.Buffer
	formatGenerationList(&buf, []model.Generation{
		{
			ID:        "gen-1",
			Content:   "briefing body",
			Metadata:  model.GenerationMetadata{"type": "briefing"},
			CreatedAt: time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "gen-1")
	assert.Contains(t, out, "briefing")
	assert.Contains(t, out, "2026-04-01 10:30")
}

func TestFormatPromptList(t *testing.T) {
	var buf bytes.Buffer
	formatPromptList(&buf, map[string]model.PromptTemplate{
		"briefing": {Module: "briefing", UpdatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
		"custom":   {Module: "custom", UpdatedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)},
	})

	out := buf.String()
	// Overridden module shows as database-sourced.
	assert.Contains(t, out, "briefing")
	assert.Contains(t, out, "database")
	// Non-overridden defaults still listed.
	assert.Contains(t, out, "persona")
	assert.Contains(t, out, "default")
	// Overrides without a built-in default appear too.
	assert.Contains(t, out, "custom")
}
