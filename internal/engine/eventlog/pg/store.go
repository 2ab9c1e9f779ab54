// Package pg is an optional durable backing for eventlog.Store, for
// deployments that need the EventLog to survive process restart.
// Grounded on rdtc8822-debug-L1JGO-Whale's internal/persist package
// (pgxpool + goose migrations).
package pg

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"mtgserver/internal/engine/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a Postgres-backed implementation of eventlog.Store.
type Store struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect event log db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping event log db: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies all pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return goose.UpContext(ctx, db, "migrations")
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Append(ctx context.Context, gameID string, rec domain.EventRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_events (game_id, seq, kind, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		gameID, rec.Seq, rec.Kind, payload, rec.Timestamp)
	return err
}

func (s *Store) ForwardIterate(ctx context.Context, gameID string) ([]domain.EventRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT seq, kind, payload, created_at FROM game_events WHERE game_id = $1 ORDER BY seq ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EventRecord
	for rows.Next() {
		var rec domain.EventRecord
		var raw []byte
		if err := rows.Scan(&rec.Seq, &rec.Kind, &raw, &rec.Timestamp); err != nil {
			return nil, err
		}
		var payload interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) LatestSeq(ctx context.Context, gameID string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = $1`, gameID).Scan(&seq)
	return seq, err
}

func (s *Store) Delete(ctx context.Context, gameID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM game_events WHERE game_id = $1`, gameID)
	return err
}

func (s *Store) TruncateAfter(ctx context.Context, gameID string, seq int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM game_events WHERE game_id = $1 AND seq > $2`, gameID, seq)
	return err
}
