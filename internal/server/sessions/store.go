// Package sessions tracks coordinator-local multipart upload sessions between
// initiate and complete/abort. Sessions are advisory: the storage provider's
// own listing remains the authority for reconciliation, so a lost session
// never strands an upload.
package sessions

import (
	"context"
	"time"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

// Session is the coordinator-local record of one in-flight multipart upload.
type Session struct {
	UploadID      string          `json:"uploadId"`
	Key           string          `json:"key"`
	PartSize      int64           `json:"partSize"`
	ExpectedParts int32           `json:"expectedParts"`
	OwnerID       string          `json:"ownerId"`
	Kind          models.ItemKind `json:"kind"`
	ProjectID     string          `json:"projectId"`
	FolderID      *string         `json:"folderId,omitempty"`
	Filename      string          `json:"filename"`
	ContentType   string          `json:"contentType"`
	SizeBytes     int64           `json:"sizeBytes"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Store persists sessions with a TTL so abandoned uploads do not leak
// indefinitely.
type Store interface {
	// Put stores the session under its UploadID.
	Put(ctx context.Context, s *Session) error

	// Get returns a session or common.ErrorNotFound.
	Get(ctx context.Context, uploadID string) (*Session, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, uploadID string) error
}
