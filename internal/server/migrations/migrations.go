// Package migrations embeds the goose SQL migrations for the workspace schema.
package migrations

import "embed"

//go:embed sql/*.sql
var Migrations embed.FS

// Dir is the root of the embedded migration files.
const Dir = "sql"
