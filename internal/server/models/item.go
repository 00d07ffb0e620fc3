package models

import "time"

// ItemKind separates client/staff-uploaded input material (assets) from
// staff-uploaded output (deliveries). Both share the same catalog shape.
type ItemKind string

const (
	KindAsset    ItemKind = "ASSET"
	KindDelivery ItemKind = "DELIVERY"
)

// ValidItemKind reports whether k is a known catalog kind.
func ValidItemKind(k ItemKind) bool {
	return k == KindAsset || k == KindDelivery
}

// Item is the durable catalog record of an uploaded object. The bytes live
// in object storage under Key; a catalog row must always correspond 1:1 with
// a stored object.
type Item struct {
	ID           string
	Kind         ItemKind
	ProjectID    string
	FolderID     *string // nil = project root
	UploadedByID string
	Key          string
	Filename     string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}
