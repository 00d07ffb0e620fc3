package models

import "time"

// FolderType distinguishes the two system-reserved subtrees from ordinary
// project folders. A folder's effective type is inherited from its top-level
// ancestor and materialized at creation time.
type FolderType string

const (
	FolderAssets       FolderType = "ASSETS"
	FolderDeliverables FolderType = "DELIVERABLES"
	FolderProject      FolderType = "PROJECT"
)

// SystemFolderType reports whether t names one of the auto-provisioned
// system folders.
func SystemFolderType(t FolderType) bool {
	return t == FolderAssets || t == FolderDeliverables
}

// Folder is a node in a project's folder tree. ParentID is nil for roots.
type Folder struct {
	ID        string
	ProjectID string
	ParentID  *string
	Name      string
	Type      FolderType
	CreatedAt time.Time
}

// FolderWithCount is a Folder plus the number of items filed directly in it,
// as returned by folder listings.
type FolderWithCount struct {
	Folder
	ItemCount int64
}
