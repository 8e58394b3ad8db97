package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notaria/internal/artifact/models"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
	txcontext "notaria/pkg/platform/tx"
)

// PostgresStore persists artifacts in the artifacts table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put upserts on (document_id, kind); a retried upload overwrites the
// previous bytes and keeps the original artifact id.
func (s *PostgresStore) Put(ctx context.Context, a *models.Artifact) error {
	query := `
		INSERT INTO artifacts (id, document_id, kind, filename, content, size_bytes, digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_id, kind) DO UPDATE SET
			filename = EXCLUDED.filename,
			content = EXCLUDED.content,
			size_bytes = EXCLUDED.size_bytes,
			digest = EXCLUDED.digest,
			created_at = EXCLUDED.created_at
		RETURNING id
	`
	var id uuid.UUID
	err := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query,
		a.ID, uuid.UUID(a.DocumentID), string(a.Kind), a.Filename, a.Content, a.SizeBytes, a.Digest, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert artifact: %w", err)
	}
	a.ID = id
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, documentID domain.DocumentID, kind models.Kind) (*models.Artifact, error) {
	query := `
		SELECT id, filename, content, size_bytes, digest, created_at
		FROM artifacts
		WHERE document_id = $1 AND kind = $2
	`
	a := models.Artifact{DocumentID: documentID, Kind: kind}
	err := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(documentID), string(kind)).Scan(
		&a.ID, &a.Filename, &a.Content, &a.SizeBytes, &a.Digest, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select artifact: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) DeleteByDocument(ctx context.Context, documentID domain.DocumentID) error {
	_, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM artifacts WHERE document_id = $1`, uuid.UUID(documentID))
	if err != nil {
		return fmt.Errorf("delete artifacts: %w", err)
	}
	return nil
}
