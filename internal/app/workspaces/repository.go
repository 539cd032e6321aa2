package workspaces

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createWorkspacesTableSQL = `
CREATE TABLE IF NOT EXISTS workspaces (
  workspace_id text PRIMARY KEY,
  name text NOT NULL,
  icon text NOT NULL,
  description text,
  created_at timestamptz NOT NULL
)`

const insertWorkspaceSQL = `
INSERT INTO workspaces (workspace_id, name, icon, description, created_at)
VALUES ($1, $2, $3, $4, $5)
`

const selectWorkspaceSQL = `
SELECT workspace_id, name, icon, description, created_at
FROM workspaces
WHERE workspace_id = $1
`

const listWorkspacesSQL = `
SELECT workspace_id, name, icon, description, created_at
FROM workspaces
ORDER BY created_at DESC
`

const updateWorkspaceSQL = `
UPDATE workspaces
SET name = $2, icon = $3, description = $4
WHERE workspace_id = $1
`

const deleteWorkspaceEventsSQL = `
DELETE FROM calendar_events WHERE workspace_id = $1
`

const deleteWorkspaceDocumentsSQL = `
DELETE FROM documents WHERE workspace_id = $1
`

const deleteWorkspaceSQL = `
DELETE FROM workspaces WHERE workspace_id = $1
`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, createWorkspacesTableSQL)
	return err
}

func (r *PostgresRepository) CreateWorkspace(ctx context.Context, ws Workspace) error {
	_, err := r.Pool.Exec(ctx, insertWorkspaceSQL,
		ws.ID, ws.Name, ws.Icon, ws.Description, ws.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) GetWorkspace(ctx context.Context, id string) (Workspace, error) {
	var ws Workspace
	err := r.Pool.QueryRow(ctx, selectWorkspaceSQL, id).Scan(
		&ws.ID, &ws.Name, &ws.Icon, &ws.Description, &ws.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrNotFound
		}
		return Workspace{}, err
	}
	return ws, nil
}

func (r *PostgresRepository) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	rows, err := r.Pool.Query(ctx, listWorkspacesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Workspace, 0, 16)
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Icon, &ws.Description, &ws.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateWorkspace(ctx context.Context, ws Workspace) error {
	tag, err := r.Pool.Exec(ctx, updateWorkspaceSQL,
		ws.ID, ws.Name, ws.Icon, ws.Description,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteWorkspaceCascade(ctx context.Context, id string) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteWorkspaceEventsSQL, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteWorkspaceDocumentsSQL, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, deleteWorkspaceSQL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}
