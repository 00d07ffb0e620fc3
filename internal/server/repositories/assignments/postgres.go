package assignments

import (
	"context"
	"fmt"

	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

// PostgresRepository implements assignment storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.StaffAssignment, error) {
	query := `
		SELECT project_id, staff_id, assigned_by_id, assigned_at
		FROM staff_assignments WHERE project_id=$1 ORDER BY assigned_at
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select assignments: %w", err)
	}
	defer rows.Close()

	var result []*models.StaffAssignment
	for rows.Next() {
		var a models.StaffAssignment
		if err := rows.Scan(&a.ProjectID, &a.StaffID, &a.AssignedByID, &a.AssignedAt); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) StaffIDs(ctx context.Context, projectID string) ([]string, error) {
	query := `SELECT staff_id FROM staff_assignments WHERE project_id=$1 ORDER BY assigned_at`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select staff ids: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM staff_assignments WHERE project_id=$1`, projectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, a *models.StaffAssignment) error {
	query := `
		INSERT INTO staff_assignments (project_id, staff_id, assigned_by_id, assigned_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, a.ProjectID, a.StaffID, a.AssignedByID, a.AssignedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
