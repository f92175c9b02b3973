package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mfadhilr/wikiclient/internal/client/api"
	"github.com/mfadhilr/wikiclient/internal/client/perm"
	"github.com/mfadhilr/wikiclient/internal/client/session"
	"github.com/mfadhilr/wikiclient/internal/models"
)

// TestLoginToGatedAction walks the authenticated path end to end: login,
// decode-merged permissions persisted, then capability-gated decisions
// made from the merged set.
func TestLoginToGatedAction(t *testing.T) {
	f := newFixture(t, session.LandingPath)
	f.wiki.AddAccount("editor@wiki.go.id", "rahasia", "Editor",
		models.User{ID: 7, Name: "Budi", Email: "editor@wiki.go.id", RoleID: 2, InstanceID: 1},
		"read_content", "create_content", "edit_content", "approve_content", "reject_content")

	mgr := session.NewManager(f.st, f.client, zap.NewNop())
	ctx := context.Background()

	id, err := mgr.Login(ctx, "editor@wiki.go.id", "rahasia")
	require.NoError(t, err)
	require.False(t, id.IsGuest())

	persisted := f.st.Identity()
	require.NotNil(t, persisted)
	assert.Equal(t, "Budi", persisted.Name)
	assert.ElementsMatch(t,
		[]string{"read_content", "create_content", "edit_content", "approve_content", "reject_content"},
		persisted.Permissions)

	// Privileged controls render iff the capability is in the merged set.
	assert.True(t, perm.Has(persisted, perm.ApproveContent))
	assert.True(t, perm.Has(persisted, perm.CreateContent))
	assert.False(t, perm.Has(persisted, perm.ManageRole))
	assert.False(t, perm.Has(persisted, perm.DeleteUser))

	// The authenticated credential works against protected endpoints.
	_, err = f.client.ActiveContents(ctx)
	require.NoError(t, err)
}

// TestFirstVisitFlow walks the anonymous path: guest auto-issued on the
// landing surface, then a 401 that is recovered without interrupting a
// brand-new session, and a later 401 that is not exempt.
func TestFirstVisitFlow(t *testing.T) {
	f := newFixture(t, session.LandingPath)
	mgr := session.NewManager(f.st, f.client, zap.NewNop())
	ctx := context.Background()

	mgr.Bootstrap(ctx)
	require.NotEmpty(t, f.st.Token())
	require.True(t, f.st.Identity().IsGuest())
	require.False(t, f.st.FirstVisitDone())
	require.Equal(t, 1, f.wiki.GuestCalls())

	// First expiry on the landing surface of a first visit: no notifier.
	f.wiki.ExpireAll()
	_, err := f.client.ActiveContents(ctx)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, 0, f.notifier.count(), "first-visit exemption must suppress the notifier")
	assert.True(t, f.st.FirstVisitDone(), "the exemption marks the visit")
	assert.Equal(t, 2, f.wiki.GuestCalls())

	// The recovered guest session is live again.
	_, err = f.client.ActiveContents(ctx)
	require.NoError(t, err)

	// Second expiry anywhere: the notifier shows.
	f.wiki.ExpireAll()
	_, err = f.client.ActiveContents(ctx)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, 1, f.notifier.count())
}
