package service

import (
	"context"
	"time"

	"notaria/internal/document/models"
	"notaria/internal/notification"
	templatemodels "notaria/internal/template/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Store persists documents. Implementations return sentinel.ErrNotFound for
// missing rows and sentinel.ErrConflict when the digest is already taken.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	FindByIDForUpdate(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	UpdateState(ctx context.Context, id domain.DocumentID, state models.State, updatedAt time.Time) (*models.Document, error)
	Delete(ctx context.Context, id domain.DocumentID) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Document, error)
}

// TxRunner runs fn as one atomic unit. Store calls made with the ctx handed
// to fn take part in the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TemplateSource resolves templates; returns sentinel.ErrNotFound when absent.
type TemplateSource interface {
	GetTemplate(ctx context.Context, id domain.TemplateID) (*templatemodels.Template, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Notifier interface {
	Send(ctx context.Context, msg notification.Notification) error
}

// ArtifactRemover drops stored files of a deleted document.
type ArtifactRemover interface {
	DeleteByDocument(ctx context.Context, documentID domain.DocumentID) error
}
