package services

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/access"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
	"github.com/deliverhub/deliverhub/internal/server/sessions"
	"github.com/deliverhub/deliverhub/internal/server/storage"
)

// UploadService coordinates direct-to-storage multipart uploads: it opens
// provider-side sessions, hands presigned part URLs to the caller, finalizes
// or aborts sessions, and reconciles sessions that were abandoned.
type UploadService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	store    storage.ObjectStorage
	sessions sessions.Store
	catalog  *CatalogService
	partSize int64
	partTTL  time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewUploadService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStorage,
	sess sessions.Store, catalog *CatalogService, partSize int64, partTTL time.Duration,
	logger logging.Logger, m *metrics.Metrics) *UploadService {
	return &UploadService{
		db: db, repos: repos, store: store, sessions: sess, catalog: catalog,
		partSize: partSize, partTTL: partTTL, logger: logger, metrics: m,
	}
}

// InitiateInput describes the object a caller wants to upload.
type InitiateInput struct {
	Kind        models.ItemKind
	ProjectID   string
	FolderID    *string
	Filename    string
	ContentType string
	SizeBytes   int64
}

// PartURL is one presigned upload slot.
type PartURL struct {
	PartNumber int32  `json:"partNumber"`
	URL        string `json:"url"`
}

// InitiateResult is everything the caller needs to upload parts directly to
// storage and complete the session afterwards.
type InitiateResult struct {
	UploadID string    `json:"uploadId"`
	Key      string    `json:"key"`
	PartSize int64     `json:"partSize"`
	Parts    []PartURL `json:"parts"`
}

// CompleteInput finalizes a multipart session. Metadata fields mirror the
// initiate request; when a coordinator session survives, the session's copy
// wins over the caller's.
type CompleteInput struct {
	UploadID    string
	Key         string
	Kind        models.ItemKind
	ProjectID   string
	FolderID    *string
	Filename    string
	ContentType string
	SizeBytes   int64
	Parts       []storage.CompletedPart
}

func (in *InitiateInput) validate() error {
	fields := map[string]string{}
	if !models.ValidItemKind(in.Kind) {
		fields["kind"] = "must be ASSET or DELIVERY"
	}
	if in.ProjectID == "" {
		fields["projectId"] = "must not be empty"
	}
	if name := strings.TrimSpace(in.Filename); name == "" {
		fields["filename"] = "must not be empty"
	} else if utf8.RuneCountInString(name) > 255 {
		fields["filename"] = "must be at most 255 characters"
	}
	if in.ContentType == "" {
		fields["contentType"] = "must not be empty"
	}
	if in.SizeBytes <= 0 {
		fields["sizeBytes"] = "must be positive"
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// InitiateUpload validates the request, opens a provider-side multipart
// session, and presigns one URL per part. Only admins and staff may upload.
func (s *UploadService) InitiateUpload(ctx context.Context, p models.Principal, in InitiateInput) (*InitiateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !p.CanUpload() {
		return nil, common.ErrorForbidden
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, in.ProjectID, in.Kind == models.KindAsset)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionUpload) {
		return nil, common.ErrorForbidden
	}

	if in.FolderID != nil {
		folder, err := s.repos.Folders(s.db).GetByID(ctx, *in.FolderID)
		if err != nil {
			return nil, fmt.Errorf("loading target folder: %w", err)
		}
		if folder.ProjectID != in.ProjectID {
			return nil, common.NewValidationError("folderId", "belongs to a different project")
		}
		if in.Kind == models.KindAsset && folder.Type != models.FolderAssets {
			return nil, &common.StateConflictError{Reason: "assets can only be filed under the ASSETS tree"}
		}
	}

	key := buildObjectKey(in.ProjectID, in.Kind, in.Filename)
	uploadID, err := s.store.CreateMultipartUpload(ctx, key, in.ContentType)
	if err != nil {
		return nil, err
	}

	partCount := int32((in.SizeBytes + s.partSize - 1) / s.partSize)
	parts := make([]PartURL, 0, partCount)
	for n := int32(1); n <= partCount; n++ {
		url, err := s.store.PresignUploadPart(ctx, key, uploadID, n, s.partTTL)
		if err != nil {
			// Presigning is local crypto and should never fail once the
			// session exists, but do not leak it if something does.
			if abortErr := s.store.AbortMultipartUpload(ctx, key, uploadID); abortErr != nil {
				s.logger.Error(ctx, "aborting after presign failure", "upload_id", uploadID, "error", abortErr.Error())
			}
			return nil, err
		}
		parts = append(parts, PartURL{PartNumber: n, URL: url})
	}

	sess := &sessions.Session{
		UploadID:      uploadID,
		Key:           key,
		PartSize:      s.partSize,
		ExpectedParts: partCount,
		OwnerID:       p.ID,
		Kind:          in.Kind,
		ProjectID:     in.ProjectID,
		FolderID:      in.FolderID,
		Filename:      strings.TrimSpace(in.Filename),
		ContentType:   in.ContentType,
		SizeBytes:     in.SizeBytes,
		CreatedAt:     nowFunc(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		// Sessions are advisory. Reconciliation works off the provider's own
		// listing, so a lost record is an inconvenience, not a leak.
		s.logger.Warn(ctx, "session record not stored", "upload_id", uploadID, "error", err.Error())
	}

	s.logger.Info(ctx, "multipart upload initiated",
		"upload_id", uploadID, "key", key, "parts", partCount, "project_id", in.ProjectID)

	return &InitiateResult{UploadID: uploadID, Key: key, PartSize: s.partSize, Parts: parts}, nil
}

// CompleteUpload finalizes a multipart session and records the catalog row.
// Parts arrive in any order and are sorted before finalization. If the
// provider call fails ambiguously but the object turns out to exist, the
// completion is treated as successful.
func (s *UploadService) CompleteUpload(ctx context.Context, p models.Principal, in CompleteInput) (*models.Item, error) {
	fields := map[string]string{}
	if in.UploadID == "" {
		fields["uploadId"] = "must not be empty"
	}
	if in.Key == "" {
		fields["key"] = "must not be empty"
	}
	if len(in.Parts) == 0 {
		fields["parts"] = "must not be empty"
	}
	for _, part := range in.Parts {
		if part.PartNumber < 1 || part.ETag == "" {
			fields["parts"] = "every part needs a positive number and a non-empty eTag"
			break
		}
	}
	if len(fields) > 0 {
		return nil, &common.ValidationError{Fields: fields}
	}
	if !p.CanUpload() {
		return nil, common.ErrorForbidden
	}

	// When the coordinator session survives it is authoritative for the
	// object metadata and proves ownership of the upload.
	if sess, err := s.sessions.Get(ctx, in.UploadID); err == nil {
		if sess.OwnerID != p.ID && !p.IsAdmin() {
			return nil, common.ErrorForbidden
		}
		in.Key = sess.Key
		in.Kind = sess.Kind
		in.ProjectID = sess.ProjectID
		in.FolderID = sess.FolderID
		in.Filename = sess.Filename
		in.ContentType = sess.ContentType
		in.SizeBytes = sess.SizeBytes
	}

	if !models.ValidItemKind(in.Kind) {
		return nil, common.NewValidationError("kind", "must be ASSET or DELIVERY")
	}
	if in.ProjectID == "" {
		return nil, common.NewValidationError("projectId", "must not be empty")
	}

	_, scope, err := projectScope(ctx, s.db, s.repos, in.ProjectID, in.Kind == models.KindAsset)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionUpload) {
		return nil, common.ErrorForbidden
	}

	sort.Slice(in.Parts, func(i, j int) bool { return in.Parts[i].PartNumber < in.Parts[j].PartNumber })

	if _, err := s.store.CompleteMultipartUpload(ctx, in.Key, in.UploadID, in.Parts); err != nil {
		// The provider may have finalized the object even though the call
		// failed. Check before declaring the upload lost.
		exists, headErr := s.store.ObjectExists(ctx, in.Key)
		if headErr != nil || !exists {
			return nil, err
		}
		s.logger.Warn(ctx, "complete call failed but object exists, proceeding",
			"upload_id", in.UploadID, "key", in.Key, "error", err.Error())
	}

	item := &models.Item{
		ID:           newID(),
		Kind:         in.Kind,
		ProjectID:    in.ProjectID,
		FolderID:     in.FolderID,
		UploadedByID: p.ID,
		Key:          in.Key,
		Filename:     strings.TrimSpace(in.Filename),
		ContentType:  in.ContentType,
		SizeBytes:    in.SizeBytes,
		CreatedAt:    nowFunc(),
	}
	if err := s.catalog.RecordUpload(ctx, item); err != nil {
		// The object is durable in storage but uncatalogued. Completing the
		// same upload again is the recovery path.
		s.logger.Error(ctx, "object stored but not catalogued",
			"upload_id", in.UploadID, "key", in.Key, "error", err.Error())
		return nil, err
	}

	if err := s.sessions.Delete(ctx, in.UploadID); err != nil {
		s.logger.Warn(ctx, "session record not deleted", "upload_id", in.UploadID, "error", err.Error())
	}
	s.metrics.UploadsCompleted.Inc()
	s.logger.Info(ctx, "multipart upload completed", "upload_id", in.UploadID, "key", in.Key, "item_id", item.ID)
	return item, nil
}

// AbortUpload releases a multipart session. Aborting an unknown or already
// finalized session succeeds, so retries are always safe.
func (s *UploadService) AbortUpload(ctx context.Context, p models.Principal, uploadID, key string) error {
	fields := map[string]string{}
	if uploadID == "" {
		fields["uploadId"] = "must not be empty"
	}
	if key == "" {
		fields["key"] = "must not be empty"
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	if !p.CanUpload() {
		return common.ErrorForbidden
	}

	if err := s.store.AbortMultipartUpload(ctx, key, uploadID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, uploadID); err != nil {
		s.logger.Warn(ctx, "session record not deleted", "upload_id", uploadID, "error", err.Error())
	}
	s.metrics.UploadsAborted.Inc()
	s.logger.Info(ctx, "multipart upload aborted", "upload_id", uploadID, "key", key)
	return nil
}

// ReconcileStale aborts provider-side multipart sessions older than the
// given age. Run periodically; relies on the provider listing rather than
// coordinator sessions so nothing is missed.
func (s *UploadService) ReconcileStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := nowFunc().Add(-olderThan)
	stale, err := s.store.ListUnfinishedUploads(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	aborted := 0
	for _, u := range stale {
		if err := s.store.AbortMultipartUpload(ctx, u.Key, u.UploadID); err != nil {
			s.logger.Error(ctx, "reconcile abort failed", "upload_id", u.UploadID, "key", u.Key, "error", err.Error())
			continue
		}
		if err := s.sessions.Delete(ctx, u.UploadID); err != nil {
			s.logger.Warn(ctx, "session record not deleted", "upload_id", u.UploadID, "error", err.Error())
		}
		s.metrics.UploadsAborted.Inc()
		aborted++
	}
	if aborted > 0 {
		s.logger.Info(ctx, "stale multipart uploads reconciled", "aborted", aborted)
	}
	return aborted, nil
}

// buildObjectKey synthesizes a collision-free storage key. The time-ordered
// prefix keeps listings roughly chronological; the original filename is kept
// as the last segment for operator readability.
func buildObjectKey(projectID string, kind models.ItemKind, filename string) string {
	sub := "assets"
	if kind == models.KindDelivery {
		sub = "deliveries"
	}
	return path.Join("projects", projectID, sub,
		fmt.Sprintf("%d-%s", nowFunc().UnixNano(), newID()), sanitizeFilename(filename))
}

// sanitizeFilename strips path separators and control characters so the
// client-supplied name cannot escape its key prefix.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
