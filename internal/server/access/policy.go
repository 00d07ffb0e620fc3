// Package access implements the policy evaluator: a pure function from
// (principal, resource scope, action) to an allow/deny decision. It performs
// no I/O; callers re-derive ownership from the datastore before evaluating.
package access

import "github.com/deliverhub/deliverhub/internal/server/models"

// Action is the operation class being authorized.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionUpload Action = "upload"
)

// ProjectInfo is the ownership information of the project a resource belongs
// to, loaded fresh from the datastore.
type ProjectInfo struct {
	ClientID    string
	CreatedByID string
	StaffIDs    []string
}

// Scope describes the resource being accessed. AssetsSubtree marks folders,
// listings, and items rooted under the ASSETS system folder, which clients
// may never view.
type Scope struct {
	Project       ProjectInfo
	AssetsSubtree bool
}

// CanAccess evaluates the three-tier policy in precedence order:
// ADMIN allows everything; STAFF requires assignment or creatorship of the
// parent project; CLIENT requires ownership and is denied views into the
// ASSETS subtree; anything else is denied.
func CanAccess(p models.Principal, s Scope, action Action) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return staffOnProject(p.ID, s.Project)
	case models.RoleClient:
		if p.ID != s.Project.ClientID {
			return false
		}
		if s.AssetsSubtree && action == ActionView {
			return false
		}
		return true
	default:
		return false
	}
}

func staffOnProject(staffID string, pr ProjectInfo) bool {
	if staffID == pr.CreatedByID {
		return true
	}
	for _, id := range pr.StaffIDs {
		if id == staffID {
			return true
		}
	}
	return false
}
