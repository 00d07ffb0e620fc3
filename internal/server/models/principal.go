// Package models defines the server-side data model of the workspace:
// principals, projects, staff assignments, folders, and catalog items.
package models

// Role classifies a principal for access decisions.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleClient Role = "CLIENT"
)

// Principal is the authenticated actor performing an operation. It is
// supplied externally per request and never persisted by this core.
type Principal struct {
	// ID identifies the actor.
	ID string
	// Role is one of ADMIN, STAFF, CLIENT.
	Role Role
	// Name is a display name carried in the token, used for notification
	// payloads ("assigned by"). May be empty.
	Name string
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanUpload reports whether the principal holds an upload-privileged role.
// Multipart initiation is restricted to ADMIN and STAFF.
func (p Principal) CanUpload() bool { return p.Role == RoleAdmin || p.Role == RoleStaff }
