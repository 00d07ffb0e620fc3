// Package items provides PostgreSQL-backed persistence for the asset and
// delivery catalog. Catalog rows are the durable record of uploaded objects;
// the bytes themselves live in object storage.
package items

import (
	"context"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

type Repository interface {
	// Insert stores a catalog row. Called only after the storage-side write
	// is confirmed.
	Insert(ctx context.Context, it *models.Item) error

	// GetByID returns an item of the given kind or common.ErrorNotFound.
	GetByID(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error)

	// Delete removes a catalog row. Called only after the storage object is
	// confirmed deleted.
	Delete(ctx context.Context, kind models.ItemKind, id string) error

	// SetFolder refiles an item into a folder (nil = project root).
	SetFolder(ctx context.Context, kind models.ItemKind, id string, folderID *string) error

	// CountByProject returns how many items of the kind exist in a project.
	CountByProject(ctx context.Context, projectID string, kind models.ItemKind) (int64, error)

	// ListByProject returns a project's items of the kind, newest first.
	ListByProject(ctx context.Context, projectID string, kind models.ItemKind) ([]*models.Item, error)
}
