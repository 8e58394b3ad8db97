package audit

import (
	"context"
	"time"

	"notaria/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: lifecycle
	// transitions, signatures and certification. These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine document edits and reads.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent is the event type name stored with every record.
type AuditEvent string

const (
	EventDocumentCreated      AuditEvent = "document_created"
	EventDocumentUpdated      AuditEvent = "document_updated"
	EventDocumentDeleted      AuditEvent = "document_deleted"
	EventDocumentTransitioned AuditEvent = "document_transitioned"
	EventSignatureApplied     AuditEvent = "signature_applied"
	EventCertifierPDFUploaded AuditEvent = "certifier_pdf_uploaded"
	EventTemplateCreated      AuditEvent = "template_created"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDocumentTransitioned: CategoryCompliance,
	EventDocumentDeleted:      CategoryCompliance,
	EventSignatureApplied:     CategoryCompliance,
	EventCertifierPDFUploaded: CategoryCompliance,
	EventDocumentCreated:      CategoryOperations,
	EventDocumentUpdated:      CategoryOperations,
	EventTemplateCreated:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	EventType AuditEvent
	// EntityID is the audited resource, usually a document ID.
	EntityID  string
	ActorID   domain.UserID
	ActorRole domain.Role
	Details   map[string]string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// Category derives the category from the event type.
func (e Event) Category() EventCategory {
	return e.EventType.Category()
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}
