package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

const projectColumns = `id, title, client_id, created_by_id, staff_id, status,
		completion_submitted_at, completion_submitted_by_id,
		completion_notified_at, completion_notified_by_id,
		completion_notification_email, completion_notification_email_cc,
		created_at`

// PostgresRepository implements project storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, title, client_id, created_by_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Title, p.ClientID, p.CreatedByID, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	return r.queryProjects(ctx, query)
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE client_id=$1 ORDER BY created_at DESC`
	return r.queryProjects(ctx, query, clientID)
}

func (r *PostgresRepository) ListByStaff(ctx context.Context, staffID string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p
		WHERE p.created_by_id=$1
		   OR EXISTS (SELECT 1 FROM staff_assignments a WHERE a.project_id=p.id AND a.staff_id=$1)
		ORDER BY p.created_at DESC`
	return r.queryProjects(ctx, query, staffID)
}

func (r *PostgresRepository) UpdateTitle(ctx context.Context, id, title string) error {
	return r.execOne(ctx, `UPDATE projects SET title=$2 WHERE id=$1`, id, title)
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string, at time.Time, byID string) error {
	query := `
		UPDATE projects
		SET status=$2, completion_submitted_at=$3, completion_submitted_by_id=$4
		WHERE id=$1
	`
	return r.execOne(ctx, query, id, models.StatusCompleted, at, byID)
}

func (r *PostgresRepository) SetStatusClearingCompletion(ctx context.Context, id string, status models.ProjectStatus) error {
	query := `
		UPDATE projects
		SET status=$2,
			completion_submitted_at=NULL, completion_submitted_by_id=NULL,
			completion_notified_at=NULL, completion_notified_by_id=NULL,
			completion_notification_email=NULL, completion_notification_email_cc=NULL
		WHERE id=$1
	`
	return r.execOne(ctx, query, id, status)
}

func (r *PostgresRepository) MarkCompletionNotified(ctx context.Context, id string, at time.Time, byID, email string, cc *string) error {
	query := `
		UPDATE projects
		SET completion_notified_at=$2, completion_notified_by_id=$3,
			completion_notification_email=$4, completion_notification_email_cc=$5
		WHERE id=$1
	`
	return r.execOne(ctx, query, id, at, byID, email, cc)
}

func (r *PostgresRepository) SetStaffID(ctx context.Context, id string, staffID *string) error {
	return r.execOne(ctx, `UPDATE projects SET staff_id=$2 WHERE id=$1`, id, staffID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM projects WHERE id=$1`, id)
}

// execOne runs a statement expected to touch exactly one row and maps zero
// affected rows to common.ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) queryProjects(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.ClientID, &p.CreatedByID, &p.StaffID, &p.Status,
		&p.CompletionSubmittedAt, &p.CompletionSubmittedByID,
		&p.CompletionNotifiedAt, &p.CompletionNotifiedByID,
		&p.CompletionNotificationEmail, &p.CompletionNotificationEmailCc,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
