// Package storage wraps the object-storage provider behind the small set of
// operations the workspace needs: multipart upload lifecycle, presigned GET
// URLs, object deletion, and listing unfinished multipart sessions for
// out-of-band reconciliation.
package storage

import (
	"context"
	"time"
)

// CompletedPart pairs a part number with the ETag the provider returned for
// the client's direct-to-storage part upload.
type CompletedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// UnfinishedUpload describes a provider-side multipart session that was
// initiated but never completed or aborted.
type UnfinishedUpload struct {
	Key       string
	UploadID  string
	Initiated time.Time
}

// ObjectStorage is the provider contract. Every call carries a bounded
// timeout; transient failures are retried by the implementation except for
// CompleteMultipartUpload, which must never be retried blindly.
type ObjectStorage interface {
	// CreateMultipartUpload opens a provider-side multipart session.
	CreateMultipartUpload(ctx context.Context, key, contentType string) (uploadID string, err error)

	// PresignUploadPart returns a time-boxed URL for uploading one part.
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error)

	// CompleteMultipartUpload finalizes the session. Parts must already be
	// sorted by ascending part number.
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (location string, err error)

	// AbortMultipartUpload releases any uploaded parts. Aborting an unknown
	// or already-aborted session is not an error.
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error

	// DeleteObject removes a stored object.
	DeleteObject(ctx context.Context, key string) error

	// ObjectExists reports whether an object is present under key. Used to
	// disambiguate a failed CompleteMultipartUpload before giving up.
	ObjectExists(ctx context.Context, key string) (bool, error)

	// PresignGetObject returns a time-boxed download URL. If disposition is
	// non-empty it is passed as the response content disposition.
	PresignGetObject(ctx context.Context, key string, ttl time.Duration, disposition string) (string, error)

	// ListUnfinishedUploads returns multipart sessions initiated before the
	// given cutoff.
	ListUnfinishedUploads(ctx context.Context, olderThan time.Time) ([]UnfinishedUpload, error)
}
