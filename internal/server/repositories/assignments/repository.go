// Package assignments provides PostgreSQL-backed persistence for the
// many-to-many staff-assignment relation. The assignment table is the single
// source of truth for staff access.
package assignments

import (
	"context"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

type Repository interface {
	// ListByProject returns the project's assignments, oldest first.
	ListByProject(ctx context.Context, projectID string) ([]*models.StaffAssignment, error)

	// StaffIDs returns just the assigned staff IDs, oldest assignment first.
	StaffIDs(ctx context.Context, projectID string) ([]string, error)

	// DeleteByProject removes every assignment of the project. Only meaningful
	// inside the same transaction that inserts the replacement set.
	DeleteByProject(ctx context.Context, projectID string) error

	// Insert stores one assignment.
	Insert(ctx context.Context, a *models.StaffAssignment) error
}
