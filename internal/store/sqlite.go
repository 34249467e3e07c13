package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// single-user runs where no Postgres is available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Fixed-width so TEXT timestamps sort lexicographically in ORDER BY.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS crawl_results (
	id          TEXT PRIMARY KEY,
	strategy_id TEXT NOT NULL,
	url         TEXT NOT NULL,
	url_type    TEXT NOT NULL DEFAULT 'website',
	status      TEXT NOT NULL DEFAULT '',
	extracted   TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prompts (
	module        TEXT PRIMARY KEY,
	system_prompt TEXT NOT NULL,
	user_prompt   TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS generations (
	id          TEXT PRIMARY KEY,
	strategy_id TEXT NOT NULL,
	agent_id    TEXT,
	content     TEXT NOT NULL,
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crawl_results_lookup ON crawl_results(strategy_id, url_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_generations_strategy ON generations(strategy_id, created_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCrawlResult stores one immutable crawl attempt.
func (s *SQLiteStore) SaveCrawlResult(ctx context.Context, strategyID string, urlType model.URLType, result *model.CrawlResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal crawl result")
	}

	id := result.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crawl_results (id, strategy_id, url, url_type, status, extracted, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, strategyID, result.URL, string(urlType), result.Status, string(payload), now.Format(sqliteTimeFormat),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert crawl result")
	}
	result.ID = id
	result.CreatedAt = now
	return nil
}

// GetLatestCrawlResult returns the newest crawl result for the strategy and
// URL type, or nil when none exists.
func (s *SQLiteStore) GetLatestCrawlResult(ctx context.Context, strategyID string, urlType model.URLType) (*model.CrawlResult, error) {
	var (
		id        string
		payload   string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, extracted, created_at FROM crawl_results WHERE strategy_id = ? AND url_type = ? ORDER BY created_at DESC LIMIT 1`,
		strategyID, string(urlType),
	).Scan(&id, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get latest crawl result")
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal crawl result")
	}
	result.ID = id
	result.CreatedAt = parseTime(createdAt)
	return &result, nil
}

// UpsertPrompt creates or replaces the stored template for a module.
func (s *SQLiteStore) UpsertPrompt(ctx context.Context, tpl model.PromptTemplate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (module, system_prompt, user_prompt, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (module) DO UPDATE SET system_prompt = excluded.system_prompt, user_prompt = excluded.user_prompt, updated_at = excluded.updated_at`,
		tpl.Module, tpl.SystemPrompt, tpl.UserPrompt, time.Now().UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert prompt %s", tpl.Module)
	}
	return nil
}

// GetPrompt returns the stored template for a module, or nil when none
// exists.
func (s *SQLiteStore) GetPrompt(ctx context.Context, module string) (*model.PromptTemplate, error) {
	var (
		tpl       model.PromptTemplate
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT module, system_prompt, user_prompt, updated_at FROM prompts WHERE module = ?`,
		module,
	).Scan(&tpl.Module, &tpl.SystemPrompt, &tpl.UserPrompt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get prompt %s", module)
	}
	tpl.Source = model.PromptSourceDatabase
	tpl.UpdatedAt = parseTime(updatedAt)
	return &tpl, nil
}

// ListPrompts returns all stored templates ordered by module.
func (s *SQLiteStore) ListPrompts(ctx context.Context) ([]model.PromptTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, system_prompt, user_prompt, updated_at FROM prompts ORDER BY module`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prompts")
	}
	defer rows.Close()

	var out []model.PromptTemplate
	for rows.Next() {
		var (
			tpl       model.PromptTemplate
			updatedAt string
		)
		if err := rows.Scan(&tpl.Module, &tpl.SystemPrompt, &tpl.UserPrompt, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prompt")
		}
		tpl.Source = model.PromptSourceDatabase
		tpl.UpdatedAt = parseTime(updatedAt)
		out = append(out, tpl)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list prompts rows")
}

// AppendGeneration inserts one immutable generation record, assigning ID and
// CreatedAt when unset.
func (s *SQLiteStore) AppendGeneration(ctx context.Context, gen *model.Generation) error {
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}
	metadata, err := json.Marshal(gen.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal generation metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO generations (id, strategy_id, agent_id, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.StrategyID, nullable(gen.AgentID), gen.Content, string(metadata), gen.CreatedAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert generation")
	}
	return nil
}

// LatestGeneration returns the newest generation of the given type for a
// strategy, or nil when none exists.
func (s *SQLiteStore) LatestGeneration(ctx context.Context, strategyID, genType string) (*model.Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, strategy_id, agent_id, content, metadata, created_at FROM generations WHERE strategy_id = ? AND json_extract(metadata, '$.type') = ? ORDER BY created_at DESC LIMIT 1`,
		strategyID, genType,
	)
	gen, err := scanSQLiteGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest generation")
	}
	return gen, nil
}

// ListGenerations returns generation history for a strategy, newest first.
func (s *SQLiteStore) ListGenerations(ctx context.Context, strategyID string, limit int) ([]model.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, strategy_id, agent_id, content, metadata, created_at FROM generations WHERE strategy_id = ? ORDER BY created_at DESC LIMIT ?`,
		strategyID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list generations")
	}
	defer rows.Close()

	var out []model.Generation
	for rows.Next() {
		gen, err := scanSQLiteGeneration(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan generation")
		}
		out = append(out, *gen)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list generations rows")
}

func scanSQLiteGeneration(row rowScanner) (*model.Generation, error) {
	var (
		gen       model.Generation
		agentID   sql.NullString
		metadata  string
		createdAt string
	)
	if err := row.Scan(&gen.ID, &gen.StrategyID, &agentID, &gen.Content, &metadata, &createdAt); err != nil {
		return nil, err
	}
	gen.AgentID = agentID.String
	gen.CreatedAt = parseTime(createdAt)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &gen.Metadata); err != nil {
			return nil, eris.Wrap(err, "unmarshal generation metadata")
		}
	}
	return &gen, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
