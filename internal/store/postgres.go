package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// Pool abstracts the pgx pool operations the store needs, so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot paths of the generation loop.
var preparedStatements = map[string]string{
	"insert_crawl_result": `INSERT INTO crawl_results (id, strategy_id, url, url_type, status, extracted, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_latest_crawl":    `SELECT id, extracted, created_at FROM crawl_results WHERE strategy_id = $1 AND url_type = $2 ORDER BY created_at DESC LIMIT 1`,
	"upsert_prompt":       `INSERT INTO prompts (module, system_prompt, user_prompt, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (module) DO UPDATE SET system_prompt = EXCLUDED.system_prompt, user_prompt = EXCLUDED.user_prompt, updated_at = EXCLUDED.updated_at`,
	"get_prompt":          `SELECT module, system_prompt, user_prompt, updated_at FROM prompts WHERE module = $1`,
	"insert_generation":   `INSERT INTO generations (id, strategy_id, agent_id, content, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"latest_generation":   `SELECT id, strategy_id, agent_id, content, metadata, created_at FROM generations WHERE strategy_id = $1 AND metadata->>'type' = $2 ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS crawl_results (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	strategy_id TEXT NOT NULL,
	url         TEXT NOT NULL,
	url_type    TEXT NOT NULL DEFAULT 'website',
	status      TEXT NOT NULL DEFAULT '',
	extracted   JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prompts (
	module        TEXT PRIMARY KEY,
	system_prompt TEXT NOT NULL,
	user_prompt   TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS generations (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	strategy_id TEXT NOT NULL,
	agent_id    TEXT,
	content     TEXT NOT NULL,
	metadata    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_crawl_results_lookup ON crawl_results(strategy_id, url_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_generations_strategy ON generations(strategy_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_generations_type ON generations((metadata->>'type'));
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveCrawlResult stores one immutable crawl attempt.
func (s *PostgresStore) SaveCrawlResult(ctx context.Context, strategyID string, urlType model.URLType, result *model.CrawlResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal crawl result")
	}

	id := result.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_results (id, strategy_id, url, url_type, status, extracted, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, strategyID, result.URL, string(urlType), result.Status, payload, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert crawl result")
	}
	result.ID = id
	result.CreatedAt = now
	return nil
}

// GetLatestCrawlResult returns the newest crawl result for the strategy and
// URL type, or nil when none exists.
func (s *PostgresStore) GetLatestCrawlResult(ctx context.Context, strategyID string, urlType model.URLType) (*model.CrawlResult, error) {
	var (
		id        string
		payload   []byte
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, extracted, created_at FROM crawl_results WHERE strategy_id = $1 AND url_type = $2 ORDER BY created_at DESC LIMIT 1`,
		strategyID, string(urlType),
	).Scan(&id, &payload, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get latest crawl result")
	}

	var result model.CrawlResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal crawl result")
	}
	result.ID = id
	result.CreatedAt = createdAt
	return &result, nil
}

// UpsertPrompt creates or replaces the stored template for a module.
func (s *PostgresStore) UpsertPrompt(ctx context.Context, tpl model.PromptTemplate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prompts (module, system_prompt, user_prompt, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (module) DO UPDATE SET system_prompt = EXCLUDED.system_prompt, user_prompt = EXCLUDED.user_prompt, updated_at = EXCLUDED.updated_at`,
		tpl.Module, tpl.SystemPrompt, tpl.UserPrompt, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert prompt %s", tpl.Module)
	}
	return nil
}

// GetPrompt returns the stored template for a module, or nil when none
// exists.
func (s *PostgresStore) GetPrompt(ctx context.Context, module string) (*model.PromptTemplate, error) {
	var tpl model.PromptTemplate
	err := s.pool.QueryRow(ctx,
		`SELECT module, system_prompt, user_prompt, updated_at FROM prompts WHERE module = $1`,
		module,
	).Scan(&tpl.Module, &tpl.SystemPrompt, &tpl.UserPrompt, &tpl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get prompt %s", module)
	}
	tpl.Source = model.PromptSourceDatabase
	return &tpl, nil
}

// ListPrompts returns all stored templates ordered by module.
func (s *PostgresStore) ListPrompts(ctx context.Context) ([]model.PromptTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT module, system_prompt, user_prompt, updated_at FROM prompts ORDER BY module`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prompts")
	}
	defer rows.Close()

	var out []model.PromptTemplate
	for rows.Next() {
		var tpl model.PromptTemplate
		if err := rows.Scan(&tpl.Module, &tpl.SystemPrompt, &tpl.UserPrompt, &tpl.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prompt")
		}
		tpl.Source = model.PromptSourceDatabase
		out = append(out, tpl)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list prompts rows")
}

// AppendGeneration inserts one immutable generation record, assigning ID and
// CreatedAt when unset.
func (s *PostgresStore) AppendGeneration(ctx context.Context, gen *model.Generation) error {
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}
	metadata, err := json.Marshal(gen.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal generation metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generations (id, strategy_id, agent_id, content, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		gen.ID, gen.StrategyID, nullable(gen.AgentID), gen.Content, metadata, gen.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert generation")
	}
	return nil
}

// LatestGeneration returns the newest generation of the given type for a
// strategy, or nil when none exists.
func (s *PostgresStore) LatestGeneration(ctx context.Context, strategyID, genType string) (*model.Generation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, strategy_id, agent_id, content, metadata, created_at FROM generations WHERE strategy_id = $1 AND metadata->>'type' = $2 ORDER BY created_at DESC LIMIT 1`,
		strategyID, genType,
	)
	gen, err := scanGeneration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest generation")
	}
	return gen, nil
}

// ListGenerations returns generation history for a strategy, newest first.
func (s *PostgresStore) ListGenerations(ctx context.Context, strategyID string, limit int) ([]model.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, strategy_id, agent_id, content, metadata, created_at FROM generations WHERE strategy_id = $1 ORDER BY created_at DESC LIMIT $2`,
		strategyID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list generations")
	}
	defer rows.Close()

	var out []model.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan generation")
		}
		out = append(out, *gen)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list generations rows")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*model.Generation, error) {
	var (
		gen      model.Generation
		agentID  *string
		metadata []byte
	)
	if err := row.Scan(&gen.ID, &gen.StrategyID, &agentID, &gen.Content, &metadata, &gen.CreatedAt); err != nil {
		return nil, err
	}
	if agentID != nil {
		gen.AgentID = *agentID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &gen.Metadata); err != nil {
			return nil, eris.Wrap(err, "unmarshal generation metadata")
		}
	}
	return &gen, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
