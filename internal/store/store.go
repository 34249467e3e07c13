// Package store persists crawl results, prompt overrides, and generation
// history behind a driver-agnostic interface with Postgres and SQLite
// implementations.
package store

import (
	"context"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// Store defines the persistence surface of the strategy engine.
type Store interface {
	// Crawl results: one row per attempt, latest wins per (strategy, url type).
	SaveCrawlResult(ctx context.Context, strategyID string, urlType model.URLType, result *model.CrawlResult) error
	GetLatestCrawlResult(ctx context.Context, strategyID string, urlType model.URLType) (*model.CrawlResult, error)

	// Prompt overrides, keyed uniquely by module.
	UpsertPrompt(ctx context.Context, tpl model.PromptTemplate) error
	GetPrompt(ctx context.Context, module string) (*model.PromptTemplate, error)
	ListPrompts(ctx context.Context) ([]model.PromptTemplate, error)

	// Generation history, append-only.
	AppendGeneration(ctx context.Context, gen *model.Generation) error
	LatestGeneration(ctx context.Context, strategyID, genType string) (*model.Generation, error)
	ListGenerations(ctx context.Context, strategyID string, limit int) ([]model.Generation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
