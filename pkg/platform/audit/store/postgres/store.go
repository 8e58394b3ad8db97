package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"notaria/pkg/domain"
	audit "notaria/pkg/platform/audit"
	txcontext "notaria/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event. When the context carries a transaction the
// event commits or rolls back with it.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		uid := uuid.UUID(event.ActorID)
		actorID = &uid
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, event_type, entity_id,
			actor_id, actor_role, details, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category()),
		event.Timestamp,
		string(event.EventType),
		event.EntityID,
		actorID,
		string(event.ActorRole),
		details,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByEntity returns events for one entity, oldest first.
func (s *Store) ListByEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	query := `
		SELECT timestamp, event_type, entity_id, actor_id, actor_role, details, request_id
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			eventType string
			actorRole string
			actorID   *uuid.UUID
			details   []byte
		)
		if err := rows.Scan(&event.Timestamp, &eventType, &event.EntityID, &actorID, &actorRole, &details, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.EventType = audit.AuditEvent(eventType)
		event.ActorRole = domain.Role(actorRole)
		if actorID != nil {
			event.ActorID = domain.UserID(*actorID)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
