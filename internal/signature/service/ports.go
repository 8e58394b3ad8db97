package service

import (
	"context"

	artifactmodels "notaria/internal/artifact/models"
	docmodels "notaria/internal/document/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Documents is the slice of the document lifecycle the flow depends on.
type Documents interface {
	GetDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) (*docmodels.Document, error)
	Transition(ctx context.Context, principal domain.Principal, id domain.DocumentID, action docmodels.Action) (docmodels.State, error)
}

type Embedder interface {
	EmbedImage(ctx context.Context, pdf, img []byte, x, y float64, pageIndex int) ([]byte, error)
}

type Artifacts interface {
	Save(ctx context.Context, documentID domain.DocumentID, kind artifactmodels.Kind, content []byte, filename string) (*artifactmodels.Artifact, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
