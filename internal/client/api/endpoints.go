package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mfadhilr/wikiclient/internal/models"
)

// MutationResult is the generic acknowledgment payload of mutating
// content endpoints.
type MutationResult struct {
	Message   string `json:"message"`
	ContentID int64  `json:"content_id,omitempty"`
}

type decodeRequest struct {
	EncryptedToken string `json:"encrypted_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// GuestToken mints a fresh guest credential.
func (c *Client) GuestToken(ctx context.Context) (*models.GuestGrant, error) {
	var grant models.GuestGrant
	if err := c.do(ctx, http.MethodGet, "/guest", nil, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// DecodeToken returns the authoritative claims behind the credential.
func (c *Client) DecodeToken(ctx context.Context, token string) (*models.TokenClaims, error) {
	var claims models.TokenClaims
	if err := c.do(ctx, http.MethodPost, "/decode", decodeRequest{EncryptedToken: token}, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	var res models.LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ActiveContents lists the id/title of all active articles.
func (c *Client) ActiveContents(ctx context.Context) ([]models.ContentSummary, error) {
	var list []models.ContentSummary
	if err := c.do(ctx, http.MethodGet, "/active", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ContentByID fetches one article aggregate.
func (c *Client) ContentByID(ctx context.Context, id int64) (*models.ContentDetail, error) {
	var detail models.ContentDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/content/%d", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateContent submits a new article.
func (c *Client) CreateContent(ctx context.Context, content *models.Content) (*MutationResult, error) {
	var res MutationResult
	if err := c.do(ctx, http.MethodPost, "/content/add", content, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EditContent updates an existing article.
func (c *Client) EditContent(ctx context.Context, id int64, content *models.Content) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/edit/%d", id), content, nil)
}

// DeleteContent soft-deletes an article.
func (c *Client) DeleteContent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/delete/%d", id), nil, nil)
}

// SearchContent searches articles by query string.
func (c *Client) SearchContent(ctx context.Context, query string) ([]models.ContentSummary, error) {
	var list []models.ContentSummary
	path := "/content?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UserContents lists articles authored by the given user.
func (c *Client) UserContents(ctx context.Context, userID int64) ([]models.Content, error) {
	var list []models.Content
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/contents/user/%d", userID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// NotRejectedContents lists all non-rejected articles.
func (c *Client) NotRejectedContents(ctx context.Context) ([]models.ContentSummary, error) {
	var list []models.ContentSummary
	if err := c.do(ctx, http.MethodGet, "/notReject", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Drafts lists pending articles awaiting approval.
func (c *Client) Drafts(ctx context.Context) ([]models.ContentSummary, error) {
	var list []models.ContentSummary
	if err := c.do(ctx, http.MethodGet, "/draft", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ApproveContent approves a pending article.
func (c *Client) ApproveContent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/approve/%d", id), nil, nil)
}

// RejectContent rejects a pending article with a reason.
func (c *Client) RejectContent(ctx context.Context, id int64, reason string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/reject/%d", id), rejectRequest{Reason: reason}, nil)
}

// ResubmitContent resubmits a rejected article for approval.
func (c *Client) ResubmitContent(ctx context.Context, id int64, content *models.Content) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/resubmit/%d", id), content, nil)
}

// ViewCount reads an article's view counter.
func (c *Client) ViewCount(ctx context.Context, id int64) (int, error) {
	var res struct {
		ViewCount int `json:"view_count"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/content/viewcount/%d", id), nil, &res); err != nil {
		return 0, err
	}
	return res.ViewCount, nil
}

// IncrementViewCount bumps an article's view counter.
func (c *Client) IncrementViewCount(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/content/increment-viewcount/%d", id), nil, nil)
}

// LatestEditorName returns the name of the most recent editor of an article.
func (c *Client) LatestEditorName(ctx context.Context, contentID int64) (string, error) {
	var res struct {
		EditorName string `json:"editor_name"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/latest-editor-name/%d", contentID), nil, &res); err != nil {
		return "", err
	}
	return res.EditorName, nil
}

// CreateSubheading attaches a new subheading to an article.
func (c *Client) CreateSubheading(ctx context.Context, contentID int64, sub *models.Subheading) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/subheading/add/%d", contentID), sub, nil)
}

// DeleteSubheading removes a subheading.
func (c *Client) DeleteSubheading(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/subheading/delete/%d", id), nil, nil)
}

// Instances lists all government instances.
func (c *Client) Instances(ctx context.Context) ([]models.Instance, error) {
	var list []models.Instance
	if err := c.do(ctx, http.MethodGet, "/instances", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Users lists all accounts.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UserByID fetches one account.
func (c *Client) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/user/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new account.
func (c *Client) CreateUser(ctx context.Context, user *models.User) error {
	return c.do(ctx, http.MethodPost, "/createuser", user, nil)
}

// EditUser updates an account.
func (c *Client) EditUser(ctx context.Context, id int64, user *models.User) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/user/edit/%d", id), user, nil)
}

// DeleteUser soft-deletes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/user/%d", id), nil, nil)
}

// Roles lists all roles.
func (c *Client) Roles(ctx context.Context) ([]models.Role, error) {
	var list []models.Role
	if err := c.do(ctx, http.MethodGet, "/roles", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Permissions lists all grantable permissions.
func (c *Client) Permissions(ctx context.Context) ([]models.Permission, error) {
	var list []models.Permission
	if err := c.do(ctx, http.MethodGet, "/permissions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RolePermissions lists every role/permission edge.
func (c *Client) RolePermissions(ctx context.Context) ([]models.RolePermission, error) {
	var list []models.RolePermission
	if err := c.do(ctx, http.MethodGet, "/role_permissions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PermissionsOfRole lists the permissions currently granted to a role.
func (c *Client) PermissionsOfRole(ctx context.Context, roleID int) ([]models.Permission, error) {
	var list []models.Permission
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/roles/%d/permissions", roleID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddPermissionToRole grants one permission to a role.
func (c *Client) AddPermissionToRole(ctx context.Context, roleID, permissionID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/roles/%d/permissions/add/%d", roleID, permissionID), nil, nil)
}

// RemovePermissionFromRole revokes one permission from a role.
func (c *Client) RemovePermissionFromRole(ctx context.Context, roleID, permissionID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/roles/%d/permissions/delete/%d", roleID, permissionID), nil, nil)
}

// AddHistory appends an audit record after a content mutation. The
// caller treats failures as best-effort: the primary mutation stands.
func (c *Client) AddHistory(ctx context.Context, entry *models.History) error {
	return c.do(ctx, http.MethodPost, "/history/add", entry, nil)
}

// HistoryByUser lists the audit trail of one editor.
func (c *Client) HistoryByUser(ctx context.Context, userID int64) ([]models.History, error) {
	var list []models.History
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/history/user/%d", userID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
