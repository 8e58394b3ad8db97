package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/sentinel"
	txcontext "notaria/pkg/platform/tx"
)

const (
	uniqueViolation = "23505"
	documentColumns = "id, template_id, name, state, field_values, body, digest, created_by, created_at, updated_at"
)

// PostgresStore persists documents in PostgreSQL. Queries join the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

type PostgresOption func(*PostgresStore)

func WithPostgresTxTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		s.txTimeout = d
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn inside a SQL transaction stored in the context passed to fn.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.txTimeout
	if timeout == 0 {
		timeout = DefaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	values, err := json.Marshal(doc.FieldValues)
	if err != nil {
		return fmt.Errorf("marshal field values: %w", err)
	}
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(doc.ID),
		uuid.UUID(doc.TemplateID),
		doc.Name,
		string(doc.State),
		values,
		doc.Body,
		doc.Digest,
		uuid.UUID(doc.CreatedBy),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.findOne(ctx, query, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	return s.findOne(ctx, query, id)
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	values, err := json.Marshal(doc.FieldValues)
	if err != nil {
		return fmt.Errorf("marshal field values: %w", err)
	}
	query := `
		UPDATE documents
		SET name = $2, state = $3, field_values = $4, body = $5, digest = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(doc.ID),
		doc.Name,
		string(doc.State),
		values,
		doc.Body,
		doc.Digest,
		doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update document: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// UpdateState writes the new state in a single statement and returns the row.
func (s *PostgresStore) UpdateState(ctx context.Context, id domain.DocumentID, state models.State, updatedAt time.Time) (*models.Document, error) {
	query := `
		UPDATE documents SET state = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + documentColumns
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id), string(state), updatedAt)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update document state: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.DocumentID) error {
	res, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns documents matching filter ordered by created_at descending.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Document, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		args = append(args, pq.Array(states))
		where = append(where, fmt.Sprintf("state = ANY($%d)", len(args)))
	}
	if filter.TemplateID != nil {
		args = append(args, uuid.UUID(*filter.TemplateID))
		where = append(where, fmt.Sprintf("template_id = $%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, uuid.UUID(*filter.CreatedBy))
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := txcontext.ExecerFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, id domain.DocumentID) (*models.Document, error) {
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                       models.Document
		id, templateID, createdBy uuid.UUID
		state                     string
		values                    []byte
	)
	if err := row.Scan(
		&id, &templateID, &doc.Name, &state, &values, &doc.Body, &doc.Digest,
		&createdBy, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	doc.ID = domain.DocumentID(id)
	doc.TemplateID = domain.TemplateID(templateID)
	doc.CreatedBy = domain.UserID(createdBy)
	doc.State = models.State(state)
	doc.FieldValues = models.FieldValues{}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &doc.FieldValues); err != nil {
			return nil, fmt.Errorf("decode field values: %w", err)
		}
	}
	return &doc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
