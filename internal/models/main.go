// Package models defines the core data structures exchanged with the Wiki API.
package models

// Identity represents the client-side cached user profile together with
// its permission set. Guest identities carry no ID, name or email; only
// the role and the permission tags issued by the server.
type Identity struct {
	// ID is the unique identifier of the user. Zero for guests.
	ID int64 `json:"id,omitempty"`
	// Name is the display name of the user.
	Name string `json:"name,omitempty"`
	// Email is the login email of the user.
	Email string `json:"email,omitempty"`
	// Role is the human-readable role name ("Admin", "Guest", ...).
	Role string `json:"role,omitempty"`
	// RoleID is the identifier of the role the user holds.
	RoleID int `json:"role_id"`
	// InstanceID identifies the government instance the user belongs to.
	InstanceID int64 `json:"instance_id,omitempty"`
	// Permissions holds the capability tags granted to the role.
	Permissions []string `json:"permissions"`
}

// IsGuest reports whether the identity is a server-issued guest identity.
func (i *Identity) IsGuest() bool {
	return i != nil && i.ID == 0
}

// Content status values as persisted by the server.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Content accessibility values.
const (
	AccessPublic          = "public"
	AccessPrivateInstance = "private_instance"
	AccessAllInstance     = "all_instance"
)

// Content is an article aggregate owned by the server.
type Content struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Tag             string `json:"tag"` // comma-separated
	AuthorID        int64  `json:"author_id"`
	AuthorRoleID    int    `json:"author_role_id,omitempty"`
	InstanceID      int64  `json:"instance_id"`
	Accessibility   string `json:"accessibility"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	ViewCount       int    `json:"view_count,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Subheading is a titled rich-text section attached to a content.
type Subheading struct {
	ID          int64  `json:"id"`
	ContentID   int64  `json:"content_id"`
	Subheading  string `json:"subheading"`
	Description string `json:"subheading_description"`
	AuthorID    int64  `json:"author_id"`
	EditorID    int64  `json:"editor_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// ContentDetail is the aggregate the server returns for a single article.
type ContentDetail struct {
	Content      Content      `json:"content"`
	Subheadings  []Subheading `json:"subheadings"`
	AuthorName   string       `json:"author_name"`
	InstanceName string       `json:"instance_name"`
}

// ContentSummary is the id/title projection returned by list endpoints.
type ContentSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

// History actions recorded after every mutating content operation.
const (
	ActionCreating  = "Creating"
	ActionEditing   = "Editing"
	ActionDeleting  = "Deleting"
	ActionApproving = "Approving"
	ActionRejecting = "Rejecting"
)

// History is an append-only audit record of a content mutation.
type History struct {
	ContentID int64  `json:"content_id"`
	EditorID  int64  `json:"editor_id"`
	Action    string `json:"action"`
	EditedAt  string `json:"edited_at"`
	Reason    string `json:"reason,omitempty"`
}

// User is a managed account as returned by the user endpoints.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	RoleID     int    `json:"role_id"`
	InstanceID int64  `json:"instance_id"`
}

// Role is a named permission holder.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Permission is a capability tag grantable to roles.
type Permission struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RolePermission is one edge of the role/permission relation.
type RolePermission struct {
	RoleID       int `json:"role_id"`
	PermissionID int `json:"permission_id"`
}

// Instance is a government instance articles and users belong to.
type Instance struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GuestGrant is the payload of the guest token issuance endpoint.
type GuestGrant struct {
	Token       string   `json:"token"`
	Role        string   `json:"role"`
	RoleID      int      `json:"role_id"`
	Permissions []string `json:"permissions"`
}

// TokenClaims is the payload of the token decode endpoint: the
// authoritative view of the bearer token the client currently holds.
type TokenClaims struct {
	ID          int64    `json:"id,omitempty"`
	Role        string   `json:"role,omitempty"`
	RoleID      int      `json:"role_id"`
	InstanceID  int64    `json:"instance_id,omitempty"`
	Permissions []string `json:"permissions"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token      string `json:"token"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RoleID     int    `json:"role_id"`
	InstanceID int64  `json:"instance_id"`
}
