// Package store persists composite scores in SQLite so repeated runs
// against the same account and keyword inside the TTL skip collection
// and evaluation entirely. It also keeps an append-only run log.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"creatorscore/internal/config"
	"creatorscore/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_cache (
	account    TEXT NOT NULL,
	keyword    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (account, keyword)
);
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	account      TEXT NOT NULL,
	keyword      TEXT NOT NULL,
	final_score  REAL NOT NULL,
	items_scored INTEGER NOT NULL,
	items_total  INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account, created_at);
`

type Store struct {
	db         *sql.DB
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	log        zerolog.Logger
}

// Open opens (creating if needed) the cache database and applies the
// schema. WAL keeps a concurrent metrics reader from blocking writes.
func Open(cfg config.CacheConfig, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Store{
		db:         db,
		ttl:        time.Duration(cfg.TTLSeconds) * time.Second,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		log:        log.With().Str("component", "store").Logger(),
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the cached composite score for the account/keyword pair,
// or ok=false when absent or expired.
func (s *Store) Get(ctx context.Context, account, keyword string) (model.CompositeScore, bool, error) {
	var payload string
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM score_cache WHERE account = ? AND keyword = ?`,
		account, keyword).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CompositeScore{}, false, nil
	}
	if err != nil {
		return model.CompositeScore{}, false, fmt.Errorf("read cache: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(createdAt, 0)) > s.ttl {
		return model.CompositeScore{}, false, nil
	}
	var score model.CompositeScore
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		// A corrupt row is a miss, not a failure.
		s.log.Warn().Err(err).Str("account", account).Msg("dropping corrupt cache row")
		return model.CompositeScore{}, false, nil
	}
	return score, true, nil
}

// Put upserts the score under the same account key later lookups will
// use, and prunes the oldest rows past MaxEntries.
func (s *Store) Put(ctx context.Context, account, keyword string, score model.CompositeScore) error {
	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_cache (account, keyword, payload, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(account, keyword) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		account, keyword, string(payload), s.now().Unix())
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return s.prune(ctx)
}

func (s *Store) prune(ctx context.Context) error {
	if s.maxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM score_cache WHERE (account, keyword) NOT IN (
			SELECT account, keyword FROM score_cache ORDER BY created_at DESC LIMIT ?
		)`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// RecordRun appends one row to the run log.
func (s *Store) RecordRun(ctx context.Context, account, keyword string, score model.CompositeScore) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, account, keyword, final_score, items_scored, items_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		score.RunID, account, keyword, score.FinalScore, score.ItemsScored, score.ItemsTotal, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Purge drops every cached score. The run log is kept.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM score_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
