package notification

import (
	"time"

	"github.com/google/uuid"

	"notaria/pkg/domain"
)

const typePrefix = "document."

// Notification tells a recipient that one of their documents changed state.
type Notification struct {
	ID           uuid.UUID         `json:"id"`
	Type         string            `json:"type"`
	DocumentID   domain.DocumentID `json:"document_id"`
	Recipient    domain.UserID     `json:"recipient"`
	TemplateData map[string]string `json:"template_data"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TypeForState names the notification sent when a document enters state.
func TypeForState(state string) string {
	return typePrefix + state
}

// New builds a notification with a fresh id.
func New(notificationType string, documentID domain.DocumentID, recipient domain.UserID, data map[string]string, now time.Time) Notification {
	return Notification{
		ID:           uuid.New(),
		Type:         notificationType,
		DocumentID:   documentID,
		Recipient:    recipient,
		TemplateData: data,
		CreatedAt:    now,
	}
}
