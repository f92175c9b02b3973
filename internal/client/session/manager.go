package session

import (
	"context"
	"fmt"

	"github.com/mfadhilr/wikiclient/internal/client/store"
	"github.com/mfadhilr/wikiclient/internal/models"
	"go.uber.org/zap"
)

// AuthAPI defines the authentication endpoints the session manager
// needs from the HTTP client.
type AuthAPI interface {
	// GuestToken mints a fresh guest credential with its role and permissions.
	GuestToken(ctx context.Context) (*models.GuestGrant, error)
	// DecodeToken returns the authoritative claims for the given credential.
	DecodeToken(ctx context.Context, token string) (*models.TokenClaims, error)
	// Login authenticates with email and password.
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
}

// Manager drives the session lifecycle over the persisted store:
// guest bootstrap, login, logout.
type Manager struct {
	store *store.Store
	api   AuthAPI
	log   *zap.Logger
}

// NewManager constructs a Manager using the provided API.
func NewManager(st *store.Store, api AuthAPI, log *zap.Logger) *Manager {
	return &Manager{store: st, api: api, log: log}
}

// Identity returns the current cached identity, nil when none.
func (m *Manager) Identity() *models.Identity {
	return m.store.Identity()
}

// Bootstrap ensures a valid credential exists when the landing surface
// is first displayed. If token or identity is absent a guest credential
// is minted; in every case the current token is decoded and the
// authoritative permission set merged into the cached identity.
//
// Failures are logged and never fatal: the surface proceeds with
// whatever identity state it has, and the gate fails closed on an
// empty permission set.
func (m *Manager) Bootstrap(ctx context.Context) {
	token := m.store.Token()
	identity := m.store.Identity()

	if token == "" || identity == nil {
		grant, err := m.api.GuestToken(ctx)
		if err != nil {
			m.log.Error("guest bootstrap failed", zap.Error(err))
			return
		}
		token = grant.Token
		identity = &models.Identity{
			Role:        grant.Role,
			RoleID:      grant.RoleID,
			Permissions: grant.Permissions,
		}
		m.store.SetToken(token)
		m.store.SetIdentity(identity)
	}

	claims, err := m.api.DecodeToken(ctx, token)
	if err != nil {
		m.log.Warn("token decode failed, keeping cached permissions", zap.Error(err))
		return
	}
	// Decoded permissions take precedence over any stale cached set.
	identity.Permissions = claims.Permissions
	if identity.RoleID == 0 {
		identity.RoleID = claims.RoleID
	}
	m.store.SetIdentity(identity)
}

// Login authenticates and replaces the session with the authenticated
// identity, then merges in the decoded permission set.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	identity := &models.Identity{
		ID:         res.ID,
		Name:       res.Name,
		Email:      res.Email,
		RoleID:     res.RoleID,
		InstanceID: res.InstanceID,
	}
	m.store.SetToken(res.Token)
	m.store.SetIdentity(identity)

	claims, err := m.api.DecodeToken(ctx, res.Token)
	if err != nil {
		m.log.Warn("token decode after login failed", zap.Error(err))
		return identity, nil
	}
	identity.Permissions = claims.Permissions
	if identity.Role == "" {
		identity.Role = claims.Role
	}
	m.store.SetIdentity(identity)
	return identity, nil
}

// Logout drops the session and bootstraps a fresh guest one.
func (m *Manager) Logout(ctx context.Context) {
	m.store.Clear()
	m.Bootstrap(ctx)
}
