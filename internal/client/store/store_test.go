package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mfadhilr/wikiclient/internal/models"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestOpen_MissingFile(t *testing.T) {
	s, _ := openTemp(t)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Identity())
	assert.False(t, s.FirstVisitDone())
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err, "corrupt session must degrade, not fail")
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Identity())
}

func TestRoundTrip(t *testing.T) {
	s, path := openTemp(t)
	s.SetToken("token-1")
	s.SetIdentity(&models.Identity{Role: "Guest", RoleID: 4, Permissions: []string{"read_content"}})
	s.MarkFirstVisit()

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "token-1", reopened.Token())
	assert.True(t, reopened.FirstVisitDone())

	id := reopened.Identity()
	require.NotNil(t, id)
	assert.True(t, id.IsGuest())
	assert.Equal(t, []string{"read_content"}, id.Permissions)
}

func TestClear_KeepsFirstVisit(t *testing.T) {
	s, _ := openTemp(t)
	s.SetToken("token-1")
	s.SetIdentity(&models.Identity{RoleID: 4})
	s.MarkFirstVisit()

	s.Clear()
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Identity())
	assert.True(t, s.FirstVisitDone())
}

func TestSubscribe(t *testing.T) {
	s, _ := openTemp(t)
	calls := 0
	s.Subscribe(func() { calls++ })

	s.SetToken("a")
	s.SetIdentity(nil)
	s.Clear()
	assert.Equal(t, 3, calls)
}

func TestSetIdentityCopiesArgument(t *testing.T) {
	s, _ := openTemp(t)
	id := &models.Identity{RoleID: 4, Permissions: []string{"read_content"}}
	s.SetIdentity(id)

	// Mutating the caller's struct after the fact must not leak into
	// the stored session.
	id.Permissions = append(id.Permissions, "manage_role")
	id.RoleID = 1

	stored := s.Identity()
	require.NotNil(t, stored)
	assert.Equal(t, 4, stored.RoleID)
	assert.Equal(t, []string{"read_content"}, stored.Permissions)
}

func TestIdentityReturnsCopy(t *testing.T) {
	s, _ := openTemp(t)
	s.SetIdentity(&models.Identity{RoleID: 4, Permissions: []string{"read_content"}})

	id := s.Identity()
	id.Permissions[0] = "mutated"
	assert.Equal(t, []string{"read_content"}, s.Identity().Permissions)
}
