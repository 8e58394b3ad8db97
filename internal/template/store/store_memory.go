package store

import (
	"context"
	"slices"
	"sync"

	"notaria/internal/template/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
)

// InMemoryStore keeps templates in a map; used when DATABASE_URL is unset.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[domain.TemplateID]*models.Template
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{templates: make(map[domain.TemplateID]*models.Template)}
}

func (s *InMemoryStore) Save(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[t.ID]; exists {
		return sentinel.ErrConflict
	}
	s.templates[t.ID] = clone(t)
	return nil
}

func (s *InMemoryStore) GetTemplate(_ context.Context, id domain.TemplateID) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(t), nil
}

func clone(t *models.Template) *models.Template {
	c := *t
	c.RequiredFields = slices.Clone(t.RequiredFields)
	return &c
}
