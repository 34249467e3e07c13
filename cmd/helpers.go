package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/brandpulse/strategy-cli/internal/pipeline"
	"github.com/brandpulse/strategy-cli/internal/store"
	anthropicpkg "github.com/brandpulse/strategy-cli/pkg/anthropic"
	"github.com/brandpulse/strategy-cli/pkg/firecrawl"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "strategy.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEngine(ctx context.Context) (*pipeline.Engine, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	fcOpts := []firecrawl.Option{}
	if cfg.Firecrawl.BaseURL != "" {
		fcOpts = append(fcOpts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	}
	if cfg.Firecrawl.RateLimitRPS > 0 {
		fcOpts = append(fcOpts, firecrawl.WithRateLimit(cfg.Firecrawl.RateLimitRPS))
	}
	fcClient := firecrawl.NewClient(cfg.Firecrawl.Key, fcOpts...)
	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	return pipeline.New(cfg, st, fcClient, aiClient), st, nil
}
