package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/interview-matrix/internal/entity"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS matrix_sessions (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	corpus     JSONB
);
CREATE TABLE IF NOT EXISTS matrix_tables (
	session_id UUID NOT NULL REFERENCES matrix_sessions(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, name)
);`

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore wraps an open pool and ensures the schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &postgresStore{pool: pool, logger: logger}, nil
}

func (s *postgresStore) Create(ctx context.Context) (*entity.Session, error) {
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matrix_sessions (id, created_at, updated_at) VALUES ($1, $2, $2)`, id, now)
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		return nil, err
	}
	return &entity.Session{ID: id, CreatedAt: now, UpdatedAt: now, Tables: []string{}}, nil
}

func (s *postgresStore) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	out := &entity.Session{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT created_at, updated_at, corpus IS NOT NULL FROM matrix_sessions WHERE id = $1`, id).
		Scan(&out.CreatedAt, &out.UpdatedAt, &out.HasCorpus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sessionNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	if out.Tables, err = s.ListTables(ctx, id); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postgresStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM matrix_sessions WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *postgresStore) PutCorpus(ctx context.Context, id uuid.UUID, corpus ingest.Corpus) error {
	payload, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE matrix_sessions SET corpus = $2, updated_at = now() WHERE id = $1`, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sessionNotFound(id)
	}
	return nil
}

func (s *postgresStore) GetCorpus(ctx context.Context, id uuid.UUID) (ingest.Corpus, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT corpus FROM matrix_sessions WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return ingest.Corpus{}, false, sessionNotFound(id)
	}
	if err != nil || payload == nil {
		return ingest.Corpus{}, false, err
	}
	var c ingest.Corpus
	if err := json.Unmarshal(payload, &c); err != nil {
		return ingest.Corpus{}, false, fmt.Errorf("decode corpus: %w", err)
	}
	return c, true, nil
}

func (s *postgresStore) PutTable(ctx context.Context, id uuid.UUID, name string, t matrix.Table) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// row lock serializes concurrent writers of one session
		tag, err := tx.Exec(ctx, `UPDATE matrix_sessions SET updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return sessionNotFound(id)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO matrix_tables (session_id, name, position, payload, updated_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM matrix_tables WHERE session_id = $1), $3, now())
ON CONFLICT (session_id, name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
			id, name, payload)
		if err != nil {
			s.logger.Error("table upsert failed", "session_id", id, "name", name, "error", err)
		}
		return err
	})
}

func (s *postgresStore) GetTable(ctx context.Context, id uuid.UUID, name string) (matrix.Table, bool, error) {
	if ok, err := s.Exists(ctx, id); err != nil || !ok {
		if err == nil {
			err = sessionNotFound(id)
		}
		return matrix.Table{}, false, err
	}
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM matrix_tables WHERE session_id = $1 AND name = $2`, id, name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return matrix.Table{}, false, nil
	}
	if err != nil {
		return matrix.Table{}, false, err
	}
	var t matrix.Table
	if err := json.Unmarshal(payload, &t); err != nil {
		return matrix.Table{}, false, fmt.Errorf("decode table: %w", err)
	}
	return t, true, nil
}

func (s *postgresStore) ListTables(ctx context.Context, id uuid.UUID) ([]string, error) {
	if ok, err := s.Exists(ctx, id); err != nil || !ok {
		if err == nil {
			err = sessionNotFound(id)
		}
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM matrix_tables WHERE session_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *postgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matrix_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sessionNotFound(id)
	}
	return nil
}

// Close is a no-op: the pool is owned by the caller and closed with Close(pool).
func (s *postgresStore) Close() error { return nil }
