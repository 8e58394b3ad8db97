package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"notaria/internal/template/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
	txcontext "notaria/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists templates in the templates table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, t *models.Template) error {
	query := `
		INSERT INTO templates (id, name, body, required_fields, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Name, t.Body, pq.Array(t.RequiredFields), t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error) {
	query := `
		SELECT id, name, body, required_fields, created_at
		FROM templates
		WHERE id = $1
	`
	var (
		t     models.Template
		rawID uuid.UUID
	)
	err := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&rawID, &t.Name, &t.Body, pq.Array(&t.RequiredFields), &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select template: %w", err)
	}
	t.ID = domain.TemplateID(rawID)
	if t.RequiredFields == nil {
		t.RequiredFields = []string{}
	}
	return &t, nil
}
