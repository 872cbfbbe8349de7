package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/relay"
	"github.com/dmitrijs2005/secureclip/internal/server/store/migrations"
)

const sweepInterval = 30 * time.Second

// PostgresStore keeps records in a single table. The destructive read is a
// DELETE ... RETURNING, which Postgres executes atomically, so concurrent
// consumers of the same code race safely even across server processes.
// Expired rows are excluded from every query and reaped by a background
// sweeper.
type PostgresStore struct {
	db   *sql.DB
	done chan struct{}
	once sync.Once
}

// NewPostgresStore opens the database, runs pending migrations and starts
// the expiry sweeper.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	s := &PostgresStore{db: db, done: make(chan struct{})}
	go s.sweeper()
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *PostgresStore) Put(ctx context.Context, code string, rec *Record, ttl time.Duration) error {
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO records (code, payload, meta, expires_at)
		VALUES ($1, $2, $3, now() + $4 * interval '1 second')
		ON CONFLICT (code)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			meta = EXCLUDED.meta,
			expires_at = EXCLUDED.expires_at;
	`
	if _, err := s.db.ExecContext(ctx, query, code, rec.Payload, meta, ttl.Seconds()); err != nil {
		return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetAndDelete(ctx context.Context, code string) (*Record, error) {
	query := `
		DELETE FROM records
		WHERE code = $1 AND expires_at > now()
		RETURNING payload, meta;
	`
	var payload string
	var meta []byte
	err := s.db.QueryRowContext(ctx, query, code).Scan(&payload, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	return buildRecord(payload, meta)
}

func (s *PostgresStore) Peek(ctx context.Context, code string) (*relay.Metadata, error) {
	query := `SELECT payload, meta FROM records WHERE code = $1 AND expires_at > now();`

	var payload string
	var meta []byte
	err := s.db.QueryRowContext(ctx, query, code).Scan(&payload, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	rec, err := buildRecord(payload, meta)
	if err != nil {
		// Corrupted row: remove it so retrieval settles on NotFound.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM records WHERE code = $1;`, code)
		return nil, err
	}

	m := rec.Meta
	return &m, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.db.Close()
}

func (s *PostgresStore) sweeper() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepInterval)
			_, _ = s.db.ExecContext(ctx, `DELETE FROM records WHERE expires_at <= now();`)
			cancel()
		case <-s.done:
			return
		}
	}
}

func buildRecord(payload string, meta []byte) (*Record, error) {
	var m relay.Metadata
	if err := json.Unmarshal(meta, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptedRecord, err)
	}
	rec := Record{Payload: payload, Meta: m}
	if rec.Payload == "" || !rec.Meta.Valid() {
		return nil, fmt.Errorf("%w: missing payload or metadata", common.ErrCorruptedRecord)
	}
	return &rec, nil
}
