// Package services implements the workspace operations on top of the
// repositories, object storage, session store, and notifier: folder
// hierarchy management, the asset/delivery catalog, the multipart upload
// coordinator, and the project lifecycle state machine.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deliverhub/deliverhub/internal/server/access"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Seams for deterministic tests.
var (
	nowFunc = time.Now
	newID   = func() string { return uuid.NewString() }
)

// projectScope re-derives a project's ownership from the datastore so policy
// decisions never trust client-supplied claims. assetsSubtree marks the
// resource as living under the ASSETS tree.
func projectScope(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, projectID string, assetsSubtree bool) (*models.Project, access.Scope, error) {
	project, err := rm.Projects(db).GetByID(ctx, projectID)
	if err != nil {
		return nil, access.Scope{}, fmt.Errorf("loading project: %w", err)
	}

	staffIDs, err := rm.Assignments(db).StaffIDs(ctx, projectID)
	if err != nil {
		return nil, access.Scope{}, fmt.Errorf("loading assignments: %w", err)
	}

	scope := access.Scope{
		Project: access.ProjectInfo{
			ClientID:    project.ClientID,
			CreatedByID: project.CreatedByID,
			StaffIDs:    staffIDs,
		},
		AssetsSubtree: assetsSubtree,
	}
	return project, scope, nil
}
