// Package repomanager vends per-entity repositories bound to a shared
// database handle, so services can run them either directly on *sql.DB or
// inside a dbx.WithTx transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/server/repositories/assignments"
	"github.com/deliverhub/deliverhub/internal/server/repositories/folders"
	"github.com/deliverhub/deliverhub/internal/server/repositories/items"
	"github.com/deliverhub/deliverhub/internal/server/repositories/projects"
	"github.com/deliverhub/deliverhub/internal/server/repositories/users"
)

// RepositoryManager constructs repositories on demand for a given DBTX.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
	Assignments(db dbx.DBTX) assignments.Repository
	Folders(db dbx.DBTX) folders.Repository
	Items(db dbx.DBTX) items.Repository

	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context, db *sql.DB) error
}
