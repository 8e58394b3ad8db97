package store

import (
	"context"
	"slices"
	"sync"

	"notaria/internal/artifact/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
)

type key struct {
	documentID domain.DocumentID
	kind       models.Kind
}

// InMemoryStore keeps artifacts keyed by (document, kind).
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[key]*models.Artifact
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[key]*models.Artifact)}
}

// Put stores a, replacing any artifact of the same kind for the document.
func (s *InMemoryStore) Put(_ context.Context, a *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	c.Content = slices.Clone(a.Content)
	s.artifacts[key{a.DocumentID, a.Kind}] = &c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, documentID domain.DocumentID, kind models.Kind) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[key{documentID, kind}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *a
	c.Content = slices.Clone(a.Content)
	return &c, nil
}

// DeleteByDocument removes every artifact of a document.
func (s *InMemoryStore) DeleteByDocument(_ context.Context, documentID domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.artifacts {
		if k.documentID == documentID {
			delete(s.artifacts, k)
		}
	}
	return nil
}
