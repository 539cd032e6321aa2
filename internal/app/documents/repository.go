package documents

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTableSQL = `
CREATE TABLE IF NOT EXISTS documents (
  document_id text PRIMARY KEY,
  workspace_id text NOT NULL,
  title text NOT NULL,
  icon text,
  cover_image text,
  content text,
  parent_id text,
  is_archived boolean NOT NULL DEFAULT false,
  is_favorite boolean NOT NULL DEFAULT false,
  due_date bigint,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL
)`

const createDocumentsParentIndexSQL = `
CREATE INDEX IF NOT EXISTS documents_parent_idx
ON documents (workspace_id, parent_id)
`

const createDocumentsDueDateIndexSQL = `
CREATE INDEX IF NOT EXISTS documents_due_date_idx
ON documents (workspace_id)
WHERE due_date IS NOT NULL AND NOT is_archived
`

const documentColumns = `
document_id, workspace_id, title, icon, cover_image, content, parent_id,
is_archived, is_favorite, due_date, created_at, updated_at`

const insertDocumentSQL = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const selectDocumentSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE document_id = $1
`

const listTopLevelSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND parent_id IS NULL AND NOT is_archived
ORDER BY created_at DESC
`

const listChildrenSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND parent_id = $2 AND NOT is_archived
ORDER BY created_at DESC
`

const listFavoritesSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND is_favorite AND NOT is_archived
ORDER BY updated_at DESC
`

const listArchivedSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND is_archived
ORDER BY updated_at DESC
`

const listWithDueDatesSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND due_date IS NOT NULL AND NOT is_archived
ORDER BY due_date ASC
`

const listChildrenIDsSQL = `
SELECT document_id FROM documents WHERE parent_id = $1
`

const updateDocumentSQL = `
UPDATE documents
SET title = $2, icon = $3, cover_image = $4, content = $5, parent_id = $6,
    is_archived = $7, is_favorite = $8, due_date = $9, updated_at = $10
WHERE document_id = $1
`

const updateContentSQL = `
UPDATE documents
SET content = $2, updated_at = $3
WHERE document_id = $1
`

const setArchivedSQL = `
UPDATE documents
SET is_archived = $2, updated_at = $3
WHERE document_id = ANY($1)
`

const deleteDocumentsSQL = `
DELETE FROM documents WHERE document_id = ANY($1)
`

const archivedBeforeSQL = `
SELECT ` + documentColumns + `
FROM documents
WHERE is_archived AND updated_at < $1
`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createDocumentsTableSQL); err != nil {
		return err
	}
	if _, err := r.Pool.Exec(ctx, createDocumentsParentIndexSQL); err != nil {
		return err
	}
	if _, err := r.Pool.Exec(ctx, createDocumentsDueDateIndexSQL); err != nil {
		return err
	}
	return nil
}

func (r *PostgresRepository) CreateDocument(ctx context.Context, doc Document) error {
	_, err := r.Pool.Exec(ctx, insertDocumentSQL,
		doc.ID, doc.WorkspaceID, doc.Title, doc.Icon, doc.CoverImage, doc.Content,
		doc.ParentID, doc.IsArchived, doc.IsFavorite, doc.DueDate,
		doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetDocument(ctx context.Context, id string) (Document, error) {
	doc, err := scanDocument(r.Pool.QueryRow(ctx, selectDocumentSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, workspaceID string, parentID *string) ([]Document, error) {
	var rows pgx.Rows
	var err error
	if parentID == nil {
		rows, err = r.Pool.Query(ctx, listTopLevelSQL, workspaceID)
	} else {
		rows, err = r.Pool.Query(ctx, listChildrenSQL, workspaceID, *parentID)
	}
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

func (r *PostgresRepository) ListFavorites(ctx context.Context, workspaceID string) ([]Document, error) {
	rows, err := r.Pool.Query(ctx, listFavoritesSQL, workspaceID)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

func (r *PostgresRepository) ListArchived(ctx context.Context, workspaceID string) ([]Document, error) {
	rows, err := r.Pool.Query(ctx, listArchivedSQL, workspaceID)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

func (r *PostgresRepository) ListWithDueDates(ctx context.Context, workspaceID string) ([]Document, error) {
	rows, err := r.Pool.Query(ctx, listWithDueDatesSQL, workspaceID)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

func (r *PostgresRepository) ListChildrenIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := r.Pool.Query(ctx, listChildrenIDsSQL, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) UpdateDocument(ctx context.Context, doc Document) error {
	tag, err := r.Pool.Exec(ctx, updateDocumentSQL,
		doc.ID, doc.Title, doc.Icon, doc.CoverImage, doc.Content, doc.ParentID,
		doc.IsArchived, doc.IsFavorite, doc.DueDate, doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id string, content string, updatedAt time.Time) error {
	tag, err := r.Pool.Exec(ctx, updateContentSQL, id, content, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetArchived(ctx context.Context, ids []string, archived bool, updatedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.Pool.Exec(ctx, setArchivedSQL, ids, archived, updatedAt)
	return err
}

func (r *PostgresRepository) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.Pool.Exec(ctx, deleteDocumentsSQL, ids)
	return err
}

func (r *PostgresRepository) ArchivedBefore(ctx context.Context, cutoff time.Time) ([]Document, error) {
	rows, err := r.Pool.Query(ctx, archivedBeforeSQL, cutoff)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID, &doc.WorkspaceID, &doc.Title, &doc.Icon, &doc.CoverImage,
		&doc.Content, &doc.ParentID, &doc.IsArchived, &doc.IsFavorite,
		&doc.DueDate, &doc.CreatedAt, &doc.UpdatedAt,
	)
	return doc, err
}

func scanDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()
	result := make([]Document, 0, 32)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
