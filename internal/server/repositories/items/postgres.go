package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

const itemColumns = `id, kind, project_id, folder_id, uploaded_by_id, key, filename, content_type, size_bytes, created_at`

// PostgresRepository implements catalog storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, it *models.Item) error {
	query := `
		INSERT INTO items (id, kind, project_id, folder_id, uploaded_by_id, key, filename, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.Kind, it.ProjectID, it.FolderID, it.UploadedByID,
		it.Key, it.Filename, it.ContentType, it.SizeBytes, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=$1 AND kind=$2`

	var it models.Item
	err := r.db.QueryRowContext(ctx, query, id, kind).Scan(
		&it.ID, &it.Kind, &it.ProjectID, &it.FolderID, &it.UploadedByID,
		&it.Key, &it.Filename, &it.ContentType, &it.SizeBytes, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, kind models.ItemKind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id=$1 AND kind=$2`, id, kind)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetFolder(ctx context.Context, kind models.ItemKind, id string, folderID *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET folder_id=$3 WHERE id=$1 AND kind=$2`, id, kind, folderID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CountByProject(ctx context.Context, projectID string, kind models.ItemKind) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE project_id=$1 AND kind=$2`, projectID, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string, kind models.ItemKind) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE project_id=$1 AND kind=$2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(
			&it.ID, &it.Kind, &it.ProjectID, &it.FolderID, &it.UploadedByID,
			&it.Key, &it.Filename, &it.ContentType, &it.SizeBytes, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
