package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type documentStore Tx

const documentColumns = `id, filename, original_filename, file_path, file_size,
	mime_type, uploaded_by, uploaded_at, policy_id, procedure_id`

func scanDocument(row pgx.Row, d *models.Document) error {
	return row.Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.FilePath, &d.FileSize,
		&d.MimeType, &d.UploadedBy, &d.UploadedAt, &d.PolicyID, &d.ProcedureID)
}

func (s *documentStore) CreateDocument(ctx context.Context, d *models.Document) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO documents (filename, original_filename, file_path, file_size,
			mime_type, uploaded_by, policy_id, procedure_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, uploaded_at`,
		d.Filename, d.OriginalFilename, d.FilePath, d.FileSize,
		d.MimeType, d.UploadedBy, d.PolicyID, d.ProcedureID,
	).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", mapPostgresError(err))
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var d models.Document
	row := s.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if err := scanDocument(row, &d); err != nil {
		return nil, mapPostgresError(err)
	}
	return &d, nil
}

func (s *documentStore) listDocuments(ctx context.Context, query string, arg int64) ([]*models.Document, error) {
	rows, err := s.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		var d models.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &d)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *documentStore) ListDocumentsByPolicy(ctx context.Context, policyID int64) ([]*models.Document, error) {
	return s.listDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE policy_id = $1 ORDER BY id`, policyID)
}

func (s *documentStore) ListDocumentsByProcedure(ctx context.Context, procedureID int64) ([]*models.Document, error) {
	return s.listDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE procedure_id = $1 ORDER BY id`, procedureID)
}

func (s *documentStore) ListDocumentsByUser(ctx context.Context, userID int64) ([]*models.Document, error) {
	return s.listDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE uploaded_by = $1 ORDER BY id`, userID)
}

func (s *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
