// Package perm implements the client-side permission gate.
//
// The gate is a UX convenience only: it decides what the surface shows
// and whether a mutating action is attempted at all. The server
// re-checks every privileged operation; passing the gate grants nothing.
package perm

import "github.com/mfadhilr/wikiclient/internal/models"

// Capability tags the server grants to roles.
const (
	ReadContent    = "read_content"
	CreateContent  = "create_content"
	EditContent    = "edit_content"
	DeleteContent  = "delete_content"
	ApproveContent = "approve_content"
	RejectContent  = "reject_content"
	CreateUser     = "create_user"
	EditUser       = "edit_user"
	DeleteUser     = "delete_user"
	ManageRole     = "manage_role"
)

// Has reports whether the identity holds the capability. It is
// fail-closed: an absent identity or an absent/empty permission set
// never grants anything.
func Has(id *models.Identity, capability string) bool {
	if id == nil {
		return false
	}
	for _, p := range id.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}
