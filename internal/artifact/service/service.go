// Package service is the file-storage collaborator used by the signature and
// certifier flows. It stores at most one artifact per (document, kind).
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"notaria/internal/artifact/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/sentinel"
	"notaria/pkg/requestcontext"
)

var artifactBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "notaria_artifact_size_bytes",
	Help:    "Size of stored artifacts by kind",
	Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
}, []string{"kind"})

type Store interface {
	Put(ctx context.Context, a *models.Artifact) error
	Get(ctx context.Context, documentID domain.DocumentID, kind models.Kind) (*models.Artifact, error)
	DeleteByDocument(ctx context.Context, documentID domain.DocumentID) error
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Save stores content as the document's artifact of the given kind,
// overwriting a previous one.
func (s *Service) Save(ctx context.Context, documentID domain.DocumentID, kind models.Kind, content []byte, filename string) (*models.Artifact, error) {
	a, err := models.NewArtifact(documentID, kind, content, filename, requestcontext.Now(ctx))
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
			return nil, dErrors.New(dErrors.CodeValidation, de.Message)
		}
		return nil, err
	}
	if err := s.store.Put(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store artifact")
	}
	artifactBytes.WithLabelValues(string(kind)).Observe(float64(a.SizeBytes))
	s.logger.InfoContext(ctx, "artifact stored",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", documentID.String(),
		"kind", string(kind),
		"size_bytes", a.SizeBytes,
		"digest", a.Digest,
	)
	return a, nil
}

func (s *Service) Get(ctx context.Context, documentID domain.DocumentID, kind models.Kind) (*models.Artifact, error) {
	a, err := s.store.Get(ctx, documentID, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "artifact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load artifact")
	}
	return a, nil
}

// DeleteByDocument drops all artifacts of a deleted document.
func (s *Service) DeleteByDocument(ctx context.Context, documentID domain.DocumentID) error {
	if err := s.store.DeleteByDocument(ctx, documentID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete artifacts")
	}
	return nil
}
