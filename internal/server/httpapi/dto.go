package httpapi

import (
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

type projectJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ClientID    string   `json:"clientId"`
	CreatedByID string   `json:"createdById"`
	StaffID     *string  `json:"staffId,omitempty"`
	StaffIDs    []string `json:"staffIds,omitempty"`
	Status      string   `json:"status"`

	CompletionSubmittedAt         *time.Time `json:"completionSubmittedAt,omitempty"`
	CompletionSubmittedByID       *string    `json:"completionSubmittedById,omitempty"`
	CompletionNotifiedAt          *time.Time `json:"completionNotifiedAt,omitempty"`
	CompletionNotifiedByID        *string    `json:"completionNotifiedById,omitempty"`
	CompletionNotificationEmail   *string    `json:"completionNotificationEmail,omitempty"`
	CompletionNotificationEmailCc *string    `json:"completionNotificationEmailCc,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func toProjectJSON(p *models.Project, staffIDs []string) projectJSON {
	return projectJSON{
		ID:          p.ID,
		Title:       p.Title,
		ClientID:    p.ClientID,
		CreatedByID: p.CreatedByID,
		StaffID:     p.StaffID,
		StaffIDs:    staffIDs,
		Status:      string(p.Status),

		CompletionSubmittedAt:         p.CompletionSubmittedAt,
		CompletionSubmittedByID:       p.CompletionSubmittedByID,
		CompletionNotifiedAt:          p.CompletionNotifiedAt,
		CompletionNotifiedByID:        p.CompletionNotifiedByID,
		CompletionNotificationEmail:   p.CompletionNotificationEmail,
		CompletionNotificationEmailCc: p.CompletionNotificationEmailCc,

		CreatedAt: p.CreatedAt,
	}
}

type folderJSON struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ItemCount int64     `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFolderJSON(f *models.FolderWithCount) folderJSON {
	return folderJSON{
		ID:        f.ID,
		ProjectID: f.ProjectID,
		ParentID:  f.ParentID,
		Name:      f.Name,
		Type:      string(f.Type),
		ItemCount: f.ItemCount,
		CreatedAt: f.CreatedAt,
	}
}

type itemJSON struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	ProjectID    string    `json:"projectId"`
	FolderID     *string   `json:"folderId,omitempty"`
	UploadedByID string    `json:"uploadedById"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toItemJSON(it *models.Item) itemJSON {
	return itemJSON{
		ID:           it.ID,
		Kind:         string(it.Kind),
		ProjectID:    it.ProjectID,
		FolderID:     it.FolderID,
		UploadedByID: it.UploadedByID,
		Filename:     it.Filename,
		ContentType:  it.ContentType,
		SizeBytes:    it.SizeBytes,
		CreatedAt:    it.CreatedAt,
	}
}

// kindFromPath maps the URL segment to a catalog kind.
func kindFromPath(segment string) (models.ItemKind, error) {
	switch segment {
	case "assets":
		return models.KindAsset, nil
	case "deliveries":
		return models.KindDelivery, nil
	default:
		return "", common.NewValidationError("kind", "must be assets or deliveries")
	}
}
