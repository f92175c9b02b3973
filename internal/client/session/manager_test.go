package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mfadhilr/wikiclient/internal/client/store"
	"github.com/mfadhilr/wikiclient/internal/models"
)

// fakeAuthAPI implements AuthAPI for testing.
type fakeAuthAPI struct {
	guestCalls  int
	decodeCalls int
	guestErr    error
	decodeErr   error
	loginErr    error
	decodePerms []string
	lastDecoded string
}

func (f *fakeAuthAPI) GuestToken(ctx context.Context) (*models.GuestGrant, error) {
	f.guestCalls++
	if f.guestErr != nil {
		return nil, f.guestErr
	}
	return &models.GuestGrant{Token: "guest-token", Role: "Guest", RoleID: 4, Permissions: []string{"read_content"}}, nil
}

func (f *fakeAuthAPI) DecodeToken(ctx context.Context, token string) (*models.TokenClaims, error) {
	f.decodeCalls++
	f.lastDecoded = token
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	return &models.TokenClaims{RoleID: 4, Permissions: f.decodePerms}, nil
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResult{Token: "user-token", ID: 7, Name: "Alice", Email: email, RoleID: 2, InstanceID: 1}, nil
}

func newManager(t *testing.T, api *fakeAuthAPI) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	require.NoError(t, err)
	return NewManager(st, api, zap.NewNop()), st
}

func TestBootstrap_MintsGuestWhenEmpty(t *testing.T) {
	api := &fakeAuthAPI{decodePerms: []string{"read_content"}}
	m, st := newManager(t, api)

	m.Bootstrap(context.Background())

	assert.Equal(t, 1, api.guestCalls)
	assert.Equal(t, "guest-token", st.Token())
	id := st.Identity()
	require.NotNil(t, id)
	assert.True(t, id.IsGuest())
	assert.Equal(t, []string{"read_content"}, id.Permissions)
}

func TestBootstrap_Idempotent(t *testing.T) {
	api := &fakeAuthAPI{decodePerms: []string{"read_content", "create_content"}}
	m, st := newManager(t, api)

	m.Bootstrap(context.Background())
	m.Bootstrap(context.Background())

	assert.Equal(t, 1, api.guestCalls, "a valid credential must not be re-issued")
	assert.Equal(t, 2, api.decodeCalls, "decode runs on every bootstrap")
	assert.Equal(t, []string{"read_content", "create_content"}, st.Identity().Permissions,
		"decoded permissions are authoritative")
}

func TestBootstrap_DecodeOverridesStalePermissions(t *testing.T) {
	api := &fakeAuthAPI{decodePerms: []string{"read_content", "approve_content"}}
	m, st := newManager(t, api)
	st.SetToken("existing-token")
	st.SetIdentity(&models.Identity{RoleID: 4, Permissions: []string{"stale_cap"}})

	m.Bootstrap(context.Background())

	assert.Equal(t, 0, api.guestCalls)
	assert.Equal(t, "existing-token", api.lastDecoded)
	assert.Equal(t, []string{"read_content", "approve_content"}, st.Identity().Permissions)
}

func TestBootstrap_GuestFailureIsNonFatal(t *testing.T) {
	api := &fakeAuthAPI{guestErr: errors.New("server down")}
	m, st := newManager(t, api)

	m.Bootstrap(context.Background())

	assert.Empty(t, st.Token())
	assert.Nil(t, st.Identity())
}

func TestBootstrap_DecodeFailureKeepsCachedPermissions(t *testing.T) {
	api := &fakeAuthAPI{decodeErr: errors.New("decode down")}
	m, st := newManager(t, api)
	st.SetToken("existing-token")
	st.SetIdentity(&models.Identity{RoleID: 4, Permissions: []string{"read_content"}})

	m.Bootstrap(context.Background())

	assert.Equal(t, []string{"read_content"}, st.Identity().Permissions)
}

func TestLogin_PersistsMergedIdentity(t *testing.T) {
	api := &fakeAuthAPI{decodePerms: []string{"read_content", "create_content", "approve_content"}}
	m, st := newManager(t, api)

	id, err := m.Login(context.Background(), "alice@example.go.id", "secret")
	require.NoError(t, err)

	assert.Equal(t, "user-token", st.Token())
	assert.Equal(t, int64(7), id.ID)
	assert.False(t, id.IsGuest())
	assert.Equal(t, []string{"read_content", "create_content", "approve_content"}, id.Permissions)
	assert.Equal(t, id.Permissions, st.Identity().Permissions)
}

func TestLogout_ReturnsToGuest(t *testing.T) {
	api := &fakeAuthAPI{decodePerms: []string{"read_content"}}
	m, st := newManager(t, api)

	_, err := m.Login(context.Background(), "alice@example.go.id", "secret")
	require.NoError(t, err)

	m.Logout(context.Background())

	assert.Equal(t, "guest-token", st.Token())
	assert.True(t, st.Identity().IsGuest())
}
