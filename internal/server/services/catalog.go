package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/access"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
	"github.com/deliverhub/deliverhub/internal/server/storage"
)

// maxGetPresignTTL caps download-URL lifetimes regardless of configuration.
const maxGetPresignTTL = 30 * time.Minute

// CatalogService maintains the asset/delivery catalog. Writes follow a
// storage-first ordering: a catalog row is only touched after the
// corresponding storage-side operation is confirmed, so a row always points
// at a real object.
type CatalogService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  storage.ObjectStorage
	getTTL time.Duration
	logger logging.Logger
}

func NewCatalogService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStorage, getTTL time.Duration, logger logging.Logger) *CatalogService {
	if getTTL <= 0 || getTTL > maxGetPresignTTL {
		getTTL = maxGetPresignTTL
	}
	return &CatalogService{db: db, repos: repos, store: store, getTTL: getTTL, logger: logger}
}

// RecordUpload inserts a catalog row for an object already confirmed in
// storage. Called by the upload coordinator after finalization.
func (s *CatalogService) RecordUpload(ctx context.Context, it *models.Item) error {
	if it.ID == "" {
		it.ID = newID()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = nowFunc()
	}
	if err := s.repos.Items(s.db).Insert(ctx, it); err != nil {
		return fmt.Errorf("inserting catalog row: %w", err)
	}
	return nil
}

// ListItems returns a project's items of one kind. Clients cannot list
// assets.
func (s *CatalogService) ListItems(ctx context.Context, p models.Principal, projectID string, kind models.ItemKind) ([]*models.Item, error) {
	if !models.ValidItemKind(kind) {
		return nil, common.NewValidationError("kind", "must be ASSET or DELIVERY")
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, projectID, kind == models.KindAsset)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionView) {
		return nil, common.ErrorForbidden
	}
	return s.repos.Items(s.db).ListByProject(ctx, projectID, kind)
}

// DeleteItem removes an object and its catalog row. Only the uploader or an
// admin may delete. The storage delete runs first; if it fails the row is
// kept so the catalog never points at nothing while an object leaks.
func (s *CatalogService) DeleteItem(ctx context.Context, p models.Principal, kind models.ItemKind, id string) error {
	if !models.ValidItemKind(kind) {
		return common.NewValidationError("kind", "must be ASSET or DELIVERY")
	}

	repo := s.repos.Items(s.db)
	item, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && p.ID != item.UploadedByID {
		return common.ErrorForbidden
	}

	if err := s.store.DeleteObject(ctx, item.Key); err != nil {
		return fmt.Errorf("deleting object %q: %w", item.Key, err)
	}
	if err := repo.Delete(ctx, kind, id); err != nil {
		// The object is gone but the row survived. Deleting again is safe,
		// so surface the error and let the caller retry.
		s.logger.Error(ctx, "orphaned catalog row after storage delete", "kind", string(kind), "item_id", id, "error", err.Error())
		return err
	}

	s.logger.Info(ctx, "item deleted", "kind", string(kind), "item_id", id, "key", item.Key)
	return nil
}

// StreamAccessURL returns a short-lived presigned download URL for an item.
// The policy check runs with view semantics, so clients are denied for
// assets.
func (s *CatalogService) StreamAccessURL(ctx context.Context, p models.Principal, kind models.ItemKind, id string) (string, error) {
	if !models.ValidItemKind(kind) {
		return "", common.NewValidationError("kind", "must be ASSET or DELIVERY")
	}

	item, err := s.repos.Items(s.db).GetByID(ctx, kind, id)
	if err != nil {
		return "", err
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, item.ProjectID, kind == models.KindAsset)
	if err != nil {
		return "", err
	}
	if !access.CanAccess(p, scope, access.ActionView) {
		return "", common.ErrorForbidden
	}

	disposition := fmt.Sprintf("attachment; filename=%q", item.Filename)
	url, err := s.store.PresignGetObject(ctx, item.Key, s.getTTL, disposition)
	if err != nil {
		return "", err
	}
	return url, nil
}
