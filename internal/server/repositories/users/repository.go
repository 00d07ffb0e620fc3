// Package users provides the read-only directory repository used to resolve
// staff and client names/emails for notification payloads.
package users

import (
	"context"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

type Repository interface {
	// GetByID returns the directory record or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
