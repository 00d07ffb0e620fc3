package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/access"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
)

const maxFolderNameLen = 255

// FolderService manages the per-project folder tree: the auto-provisioned
// ASSETS and DELIVERABLES roots, user-created subfolders, listings, and
// item moves.
type FolderService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *FolderService {
	return &FolderService{db: db, repos: repos, logger: logger}
}

// EnsureSystemFolders provisions the ASSETS and DELIVERABLES roots for a
// project if they are missing and returns them. Idempotent and safe under
// concurrent calls: the partial unique index guarantees at most one system
// folder per type, and losers of the insert race fall through to the refetch.
func (s *FolderService) EnsureSystemFolders(ctx context.Context, projectID string) (assets, deliverables *models.Folder, err error) {
	repo := s.repos.Folders(s.db)

	for _, spec := range []struct {
		t    models.FolderType
		name string
	}{
		{models.FolderAssets, "Assets"},
		{models.FolderDeliverables, "Deliverables"},
	} {
		f := &models.Folder{
			ID:        newID(),
			ProjectID: projectID,
			Name:      spec.name,
			Type:      spec.t,
			CreatedAt: nowFunc(),
		}
		if err := repo.InsertSystemIfAbsent(ctx, f); err != nil {
			return nil, nil, fmt.Errorf("provisioning %s folder: %w", spec.t, err)
		}
	}

	if assets, err = repo.GetSystem(ctx, projectID, models.FolderAssets); err != nil {
		return nil, nil, err
	}
	if deliverables, err = repo.GetSystem(ctx, projectID, models.FolderDeliverables); err != nil {
		return nil, nil, err
	}
	return assets, deliverables, nil
}

// CreateFolder adds a folder to a project's tree. A nested folder silently
// inherits its parent's type regardless of what the caller asked for; a
// top-level folder may not claim a system type.
func (s *FolderService) CreateFolder(ctx context.Context, p models.Principal, projectID, name string, folderType models.FolderType, parentID *string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxFolderNameLen {
		return nil, common.NewValidationError("name", "must be at most 255 characters")
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, projectID, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return nil, common.ErrorForbidden
	}

	if _, _, err := s.EnsureSystemFolders(ctx, projectID); err != nil {
		return nil, err
	}

	repo := s.repos.Folders(s.db)

	if folderType == "" {
		folderType = models.FolderProject
	}
	if parentID != nil {
		parent, err := repo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent folder: %w", err)
		}
		if parent.ProjectID != projectID {
			return nil, common.NewValidationError("parentId", "belongs to a different project")
		}
		folderType = parent.Type
	} else if models.SystemFolderType(folderType) {
		return nil, &common.StateConflictError{
			Reason: "system folders are provisioned automatically and cannot be created manually",
		}
	}

	f := &models.Folder{
		ID:        newID(),
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Type:      folderType,
		CreatedAt: nowFunc(),
	}
	if err := repo.Insert(ctx, f); err != nil {
		return nil, fmt.Errorf("inserting folder: %w", err)
	}

	s.logger.Info(ctx, "folder created", "folder_id", f.ID, "project_id", projectID, "type", string(f.Type))
	return f, nil
}

// ListFolders returns a project's folder tree with direct item counts,
// provisioning the system roots on first access. Clients never see the
// ASSETS subtree.
func (s *FolderService) ListFolders(ctx context.Context, p models.Principal, projectID string) ([]*models.FolderWithCount, error) {
	_, scope, err := projectScope(ctx, s.db, s.repos, projectID, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionView) {
		return nil, common.ErrorForbidden
	}

	if _, _, err := s.EnsureSystemFolders(ctx, projectID); err != nil {
		return nil, err
	}

	all, err := s.repos.Folders(s.db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if p.Role != models.RoleClient {
		return all, nil
	}
	visible := make([]*models.FolderWithCount, 0, len(all))
	for _, f := range all {
		if f.Type == models.FolderAssets {
			continue
		}
		visible = append(visible, f)
	}
	return visible, nil
}

// MoveItem refiles a catalog item into another folder of the same project.
// Assets may only be filed under the ASSETS tree.
func (s *FolderService) MoveItem(ctx context.Context, p models.Principal, kind models.ItemKind, itemID, targetFolderID string) error {
	if !models.ValidItemKind(kind) {
		return common.NewValidationError("kind", "must be ASSET or DELIVERY")
	}

	repo := s.repos.Items(s.db)
	item, err := repo.GetByID(ctx, kind, itemID)
	if err != nil {
		return err
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, item.ProjectID, kind == models.KindAsset)
	if err != nil {
		return err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return common.ErrorForbidden
	}

	target, err := s.repos.Folders(s.db).GetByID(ctx, targetFolderID)
	if err != nil {
		return fmt.Errorf("loading target folder: %w", err)
	}
	if target.ProjectID != item.ProjectID {
		return common.NewValidationError("targetFolderId", "belongs to a different project")
	}
	if kind == models.KindAsset && target.Type != models.FolderAssets {
		return &common.StateConflictError{Reason: "assets can only be filed under the ASSETS tree"}
	}

	if err := repo.SetFolder(ctx, kind, itemID, &targetFolderID); err != nil {
		return err
	}
	s.logger.Info(ctx, "item moved", "kind", string(kind), "item_id", itemID, "folder_id", targetFolderID)
	return nil
}
