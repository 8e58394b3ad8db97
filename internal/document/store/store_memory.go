package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"notaria/internal/document/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a map. Each method is atomic on its own;
// RunInTx serializes read-modify-write sequences per document.
type InMemoryStore struct {
	mu       sync.RWMutex
	docs     map[domain.DocumentID]*models.Document
	byDigest map[string]domain.DocumentID

	tx shardedTx
}

type MemoryOption func(*InMemoryStore)

// WithTxTimeout sets the default transaction timeout.
func WithTxTimeout(d time.Duration) MemoryOption {
	return func(s *InMemoryStore) {
		s.tx.timeout = d
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		docs:     make(map[domain.DocumentID]*models.Document),
		byDigest: make(map[string]domain.DocumentID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn while holding the lock shard of txcontext.LockKey(ctx).
// There is no rollback: fn must perform its writes last.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.run(ctx, fn)
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, taken := s.byDigest[doc.Digest]; taken {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = clone(doc)
	s.byDigest[doc.Digest] = doc.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(doc), nil
}

// FindByIDForUpdate is FindByID; the RunInTx shard lock already excludes
// concurrent writers of the same document.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	return s.FindByID(ctx, id)
}

// Update replaces the stored document. The digest must stay unique.
func (s *InMemoryStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[doc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byDigest[doc.Digest]; taken && owner != doc.ID {
		return sentinel.ErrConflict
	}
	delete(s.byDigest, current.Digest)
	s.byDigest[doc.Digest] = doc.ID
	s.docs[doc.ID] = clone(doc)
	return nil
}

// UpdateState sets only state and updatedAt and returns the stored document.
func (s *InMemoryStore) UpdateState(_ context.Context, id domain.DocumentID, state models.State, updatedAt time.Time) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	doc.ApplyTransition(state, updatedAt)
	return clone(doc), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byDigest, doc.Digest)
	delete(s.docs, id)
	return nil
}

// List returns documents matching filter, newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Document, error) {
	s.mu.RLock()
	matched := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if matches(doc, filter) {
			matched = append(matched, clone(doc))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if filter.Offset >= len(matched) {
		return []*models.Document{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

func matches(doc *models.Document, f models.ListFilter) bool {
	if len(f.States) > 0 && !slices.Contains(f.States, doc.State) {
		return false
	}
	if f.TemplateID != nil && doc.TemplateID != *f.TemplateID {
		return false
	}
	if f.CreatedBy != nil && doc.CreatedBy != *f.CreatedBy {
		return false
	}
	return true
}

func clone(doc *models.Document) *models.Document {
	c := *doc
	c.FieldValues = maps.Clone(doc.FieldValues)
	return &c
}
