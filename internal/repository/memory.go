package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interview-matrix/internal/entity"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

type memSession struct {
	createdAt time.Time
	updatedAt time.Time
	corpus    *ingest.Corpus
	order     []string
	tables    map[string]matrix.Table
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*memSession
	now      func() time.Time
}

// NewMemoryStore returns a process-local SessionStore.
func NewMemoryStore() SessionStore {
	return &memoryStore{sessions: map[uuid.UUID]*memSession{}, now: time.Now}
}

func (s *memoryStore) Create(_ context.Context) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	now := s.now().UTC()
	s.sessions[id] = &memSession{createdAt: now, updatedAt: now, order: []string{}, tables: map[string]matrix.Table{}}
	return &entity.Session{ID: id, CreatedAt: now, UpdatedAt: now, Tables: []string{}}, nil
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return &entity.Session{
		ID:        id,
		CreatedAt: ms.createdAt,
		UpdatedAt: ms.updatedAt,
		HasCorpus: ms.corpus != nil,
		Tables:    slices.Clone(ms.order),
	}, nil
}

func (s *memoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

func (s *memoryStore) PutCorpus(_ context.Context, id uuid.UUID, corpus ingest.Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[id]
	if !ok {
		return sessionNotFound(id)
	}
	c := corpus
	c.Segments = slices.Clone(corpus.Segments)
	c.Images = slices.Clone(corpus.Images)
	ms.corpus = &c
	ms.updatedAt = s.now().UTC()
	return nil
}

func (s *memoryStore) GetCorpus(_ context.Context, id uuid.UUID) (ingest.Corpus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return ingest.Corpus{}, false, sessionNotFound(id)
	}
	if ms.corpus == nil {
		return ingest.Corpus{}, false, nil
	}
	return *ms.corpus, true, nil
}

func (s *memoryStore) PutTable(_ context.Context, id uuid.UUID, name string, t matrix.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[id]
	if !ok {
		return sessionNotFound(id)
	}
	if _, exists := ms.tables[name]; !exists {
		ms.order = append(ms.order, name)
	}
	ms.tables[name] = t.Clone()
	ms.updatedAt = s.now().UTC()
	return nil
}

func (s *memoryStore) GetTable(_ context.Context, id uuid.UUID, name string) (matrix.Table, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return matrix.Table{}, false, sessionNotFound(id)
	}
	t, ok := ms.tables[name]
	if !ok {
		return matrix.Table{}, false, nil
	}
	return t.Clone(), true, nil
}

func (s *memoryStore) ListTables(_ context.Context, id uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return slices.Clone(ms.order), nil
}

func (s *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return sessionNotFound(id)
	}
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error { return nil }
