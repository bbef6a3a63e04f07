package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/interview-matrix/internal/entity"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matrix_sessions (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	corpus     TEXT
);
CREATE TABLE IF NOT EXISTS matrix_tables (
	session_id TEXT NOT NULL REFERENCES matrix_sessions(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, name)
);`

type sqliteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) a SQLite database file and ensures the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening sqlite session store", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &sqliteStore{db: db, logger: logger}, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func (s *sqliteStore) Create(ctx context.Context) (*entity.Session, error) {
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matrix_sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		id.String(), millis(now), millis(now))
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		return nil, err
	}
	return &entity.Session{ID: id, CreatedAt: now, UpdatedAt: now, Tables: []string{}}, nil
}

func (s *sqliteStore) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var (
		created, updated int64
		corpus           sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at, corpus FROM matrix_sessions WHERE id = ?`, id.String()).
		Scan(&created, &updated, &corpus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessionNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	names, err := s.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.Session{
		ID:        id,
		CreatedAt: fromMillis(created),
		UpdatedAt: fromMillis(updated),
		HasCorpus: corpus.Valid,
		Tables:    names,
	}, nil
}

func (s *sqliteStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM matrix_sessions WHERE id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqliteStore) PutCorpus(ctx context.Context, id uuid.UUID, corpus ingest.Corpus) error {
	payload, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE matrix_sessions SET corpus = ?, updated_at = ? WHERE id = ?`,
		string(payload), millis(time.Now()), id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sessionNotFound(id)
	}
	return nil
}

func (s *sqliteStore) GetCorpus(ctx context.Context, id uuid.UUID) (ingest.Corpus, bool, error) {
	var payload sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT corpus FROM matrix_sessions WHERE id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ingest.Corpus{}, false, sessionNotFound(id)
	}
	if err != nil || !payload.Valid {
		return ingest.Corpus{}, false, err
	}
	var c ingest.Corpus
	if err := json.Unmarshal([]byte(payload.String), &c); err != nil {
		return ingest.Corpus{}, false, fmt.Errorf("decode corpus: %w", err)
	}
	return c, true, nil
}

func (s *sqliteStore) PutTable(ctx context.Context, id uuid.UUID, name string, t matrix.Table) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	now := millis(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE matrix_sessions SET updated_at = ? WHERE id = ?`, now, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sessionNotFound(id)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO matrix_tables (session_id, name, position, payload, updated_at)
VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM matrix_tables WHERE session_id = ?), ?, ?)
ON CONFLICT (session_id, name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		id.String(), name, id.String(), string(payload), now)
	if err != nil {
		s.logger.Error("table upsert failed", "session_id", id, "name", name, "error", err)
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) GetTable(ctx context.Context, id uuid.UUID, name string) (matrix.Table, bool, error) {
	if ok, err := s.Exists(ctx, id); err != nil || !ok {
		if err == nil {
			err = sessionNotFound(id)
		}
		return matrix.Table{}, false, err
	}
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM matrix_tables WHERE session_id = ? AND name = ?`, id.String(), name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return matrix.Table{}, false, nil
	}
	if err != nil {
		return matrix.Table{}, false, err
	}
	var t matrix.Table
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return matrix.Table{}, false, fmt.Errorf("decode table: %w", err)
	}
	return t, true, nil
}

func (s *sqliteStore) ListTables(ctx context.Context, id uuid.UUID) ([]string, error) {
	if ok, err := s.Exists(ctx, id); err != nil || !ok {
		if err == nil {
			err = sessionNotFound(id)
		}
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM matrix_tables WHERE session_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM matrix_sessions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sessionNotFound(id)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
