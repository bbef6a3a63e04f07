package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/entity"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

// SessionStore keeps the corpus and named tables of each session. Writes overwrite:
// there is no merge and no version check, the last write wins.
type SessionStore interface {
	Create(ctx context.Context) (*entity.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	PutCorpus(ctx context.Context, id uuid.UUID, corpus ingest.Corpus) error
	GetCorpus(ctx context.Context, id uuid.UUID) (ingest.Corpus, bool, error)
	// PutTable replaces the table stored under name. A name keeps its first registration position.
	PutTable(ctx context.Context, id uuid.UUID, name string, t matrix.Table) error
	GetTable(ctx context.Context, id uuid.UUID, name string) (matrix.Table, bool, error)
	ListTables(ctx context.Context, id uuid.UUID) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

func sessionNotFound(id uuid.UUID) error {
	return common.NewAppError("SESSION_NOT_FOUND", fmt.Sprintf("session %s not found", id), common.ErrNotFound)
}
