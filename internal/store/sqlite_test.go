package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/strategy-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "strategy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_CrawlResultRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	saved := &model.CrawlResult{
		Success:          true,
		URL:              "https://acme.com",
		Status:           "completed",
		PagesCrawled:     3,
		ContentExtracted: true,
		Summary:          "Acme makes anvils and related hardware.",
		Keywords:         []string{"anvils", "hardware"},
		Technologies:     []string{"WordPress"},
	}
	require.NoError(t, s.SaveCrawlResult(ctx, "strat-1", model.URLTypeWebsite, saved))
	assert.NotEmpty(t, saved.ID)

	got, err := s.GetLatestCrawlResult(ctx, "strat-1", model.URLTypeWebsite)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Summary, got.Summary)
	assert.Equal(t, saved.Keywords, got.Keywords)
	assert.Equal(t, saved.Technologies, got.Technologies)
	assert.True(t, got.ContentExtracted)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStore_GetLatestCrawlResult_LatestWins(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &model.CrawlResult{Success: true, URL: "https://acme.com", Summary: "old"}
	require.NoError(t, s.SaveCrawlResult(ctx, "strat-1", model.URLTypeWebsite, first))
	second := &model.CrawlResult{Success: true, URL: "https://acme.com", Summary: "new"}
	require.NoError(t, s.SaveCrawlResult(ctx, "strat-1", model.URLTypeWebsite, second))

	got, err := s.GetLatestCrawlResult(ctx, "strat-1", model.URLTypeWebsite)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Summary)
}

func TestSQLiteStore_GetLatestCrawlResult_ScopedByURLType(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	site := &model.CrawlResult{Success: true, URL: "https://acme.com", Summary: "site"}
	require.NoError(t, s.SaveCrawlResult(ctx, "strat-1", model.URLTypeWebsite, site))
	product := &model.CrawlResult{Success: true, URL: "https://shop.acme.com", Summary: "product"}
	require.NoError(t, s.SaveCrawlResult(ctx, "strat-1", model.URLTypeProduct, product))

	got, err := s.GetLatestCrawlResult(ctx, "strat-1", model.URLTypeProduct)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "product", got.Summary)

	missing, err := s.GetLatestCrawlResult(ctx, "strat-other", model.URLTypeWebsite)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_PromptUpsertAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPrompt(ctx, model.PromptTemplate{
		Module:       "briefing",
		SystemPrompt: "You are a strategist.",
		UserPrompt:   "Analyze {{url}}",
	}))

	got, err := s.GetPrompt(ctx, "briefing")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.PromptSourceDatabase, got.Source)
	assert.Equal(t, "Analyze {{url}}", got.UserPrompt)

	// Second upsert replaces, not duplicates.
	require.NoError(t, s.UpsertPrompt(ctx, model.PromptTemplate{
		Module:       "briefing",
		SystemPrompt: "You are a senior strategist.",
		UserPrompt:   "Analyze {{url}} for {{company}}",
	}))

	got, err = s.GetPrompt(ctx, "briefing")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "You are a senior strategist.", got.SystemPrompt)

	all, err := s.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_GetPrompt_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	got, err := s.GetPrompt(context.Background(), "persona")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_GenerationsAppendOnly(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"draft one", "draft two", "final"} {
		gen := &model.Generation{
			StrategyID: "strat-1",
			AgentID:    "agent-1",
			Content:    content,
			Metadata:   model.GenerationMetadata{"type": "briefing"},
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AppendGeneration(ctx, gen))
	}

	latest, err := s.LatestGeneration(ctx, "strat-1", "briefing")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "final", latest.Content)
	assert.Equal(t, "briefing", latest.Metadata.Type())

	history, err := s.ListGenerations(ctx, "strat-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "final", history[0].Content)
	assert.Equal(t, "draft one", history[2].Content)
}

func TestSQLiteStore_LatestGeneration_FiltersByType(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendGeneration(ctx, &model.Generation{
		StrategyID: "strat-1",
		Content:    "briefing text",
		Metadata:   model.GenerationMetadata{"type": "briefing"},
		CreatedAt:  time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.AppendGeneration(ctx, &model.Generation{
		StrategyID: "strat-1",
		Content:    "persona text",
		Metadata:   model.GenerationMetadata{"type": "persona"},
		CreatedAt:  time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC),
	}))

	got, err := s.LatestGeneration(ctx, "strat-1", "briefing")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "briefing text", got.Content)

	none, err := s.LatestGeneration(ctx, "strat-1", "seo")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteStore_TimestampsSortLexicographically(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	// Sub-second offsets must not break ORDER BY on the TEXT column.
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"a", "b", "c"} {
		require.NoError(t, s.AppendGeneration(ctx, &model.Generation{
			StrategyID: "strat-1",
			Content:    content,
			Metadata:   model.GenerationMetadata{"type": "briefing"},
			CreatedAt:  base.Add(time.Duration(i) * 500 * time.Millisecond),
		}))
	}

	latest, err := s.LatestGeneration(ctx, "strat-1", "briefing")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "c", latest.Content)
}
