package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.Folder) error {
	query := `
		INSERT INTO folders (id, project_id, parent_id, name, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.ProjectID, f.ParentID, f.Name, f.Type, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertSystemIfAbsent(ctx context.Context, f *models.Folder) error {
	query := `
		INSERT INTO folders (id, project_id, parent_id, name, type, created_at)
		VALUES ($1, $2, NULL, $3, $4, $5)
		ON CONFLICT (project_id, type) WHERE type <> 'PROJECT' DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.ProjectID, f.Name, f.Type, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT id, project_id, parent_id, name, type, created_at FROM folders WHERE id=$1`

	var f models.Folder
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&f.ID, &f.ProjectID, &f.ParentID, &f.Name, &f.Type, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &f, nil
}

func (r *PostgresRepository) GetSystem(ctx context.Context, projectID string, t models.FolderType) (*models.Folder, error) {
	query := `
		SELECT id, project_id, parent_id, name, type, created_at
		FROM folders WHERE project_id=$1 AND type=$2 AND parent_id IS NULL
	`
	var f models.Folder
	err := r.db.QueryRowContext(ctx, query, projectID, t).
		Scan(&f.ID, &f.ProjectID, &f.ParentID, &f.Name, &f.Type, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &f, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.FolderWithCount, error) {
	query := `
		SELECT f.id, f.project_id, f.parent_id, f.name, f.type, f.created_at,
			COUNT(i.id) AS item_count
		FROM folders f
		LEFT JOIN items i ON i.folder_id = f.id
		WHERE f.project_id=$1
		GROUP BY f.id, f.project_id, f.parent_id, f.name, f.type, f.created_at
		ORDER BY CASE f.type WHEN 'ASSETS' THEN 0 WHEN 'DELIVERABLES' THEN 1 ELSE 2 END,
			f.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderWithCount
	for rows.Next() {
		var f models.FolderWithCount
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.ParentID, &f.Name, &f.Type, &f.CreatedAt, &f.ItemCount); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
