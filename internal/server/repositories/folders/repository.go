// Package folders provides PostgreSQL-backed persistence for the per-project
// folder tree, including the system-folder uniqueness guarantee.
package folders

import (
	"context"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

type Repository interface {
	// Insert stores a new folder.
	Insert(ctx context.Context, f *models.Folder) error

	// InsertSystemIfAbsent creates the ASSETS or DELIVERABLES root for a
	// project unless one already exists. Safe under concurrent invocation:
	// losers of the race on the partial unique index silently no-op.
	InsertSystemIfAbsent(ctx context.Context, f *models.Folder) error

	// GetByID returns a folder or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetSystem returns the project's system folder of the given type, or
	// common.ErrorNotFound if it has not been provisioned yet.
	GetSystem(ctx context.Context, projectID string, t models.FolderType) (*models.Folder, error)

	// ListByProject returns the project's folders with direct item counts,
	// ordered ASSETS, DELIVERABLES, PROJECT, then created_at descending.
	ListByProject(ctx context.Context, projectID string) ([]*models.FolderWithCount, error)
}
