// Package projects provides PostgreSQL-backed persistence for project
// lifecycle rows and their completion bookkeeping.
package projects

import (
	"context"
	"time"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

type Repository interface {
	// Insert stores a new project.
	Insert(ctx context.Context, p *models.Project) error

	// GetByID returns a project or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// List returns all projects, newest first.
	List(ctx context.Context) ([]*models.Project, error)

	// ListByClient returns projects owned by the given client, newest first.
	ListByClient(ctx context.Context, clientID string) ([]*models.Project, error)

	// ListByStaff returns projects the staff member is assigned to or created,
	// newest first.
	ListByStaff(ctx context.Context, staffID string) ([]*models.Project, error)

	// UpdateTitle renames a project.
	UpdateTitle(ctx context.Context, id, title string) error

	// MarkCompleted transitions to COMPLETED and stamps the submission fields.
	MarkCompleted(ctx context.Context, id string, at time.Time, byID string) error

	// SetStatusClearingCompletion sets a non-COMPLETED status and clears all
	// completion metadata. Completion metadata never survives a regression.
	SetStatusClearingCompletion(ctx context.Context, id string, status models.ProjectStatus) error

	// MarkCompletionNotified stamps the notification bookkeeping fields.
	MarkCompletionNotified(ctx context.Context, id string, at time.Time, byID, email string, cc *string) error

	// SetStaffID updates the denormalized single-staff view. Call inside the
	// same transaction that rewrites staff_assignments.
	SetStaffID(ctx context.Context, id string, staffID *string) error

	// Delete removes the project row (folders, items, and assignments cascade).
	Delete(ctx context.Context, id string) error
}
