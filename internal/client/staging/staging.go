// Package staging implements the role-permission assignment editor as a
// diff against the last known server state. Toggles that return a pair
// to its baseline value leave no pending entry, so saving a clean board
// issues no requests at all.
package staging

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mfadhilr/wikiclient/internal/models"
)

// RolePermissionAPI is the slice of the Wiki API the board needs.
type RolePermissionAPI interface {
	PermissionsOfRole(ctx context.Context, roleID int) ([]models.Permission, error)
	AddPermissionToRole(ctx context.Context, roleID, permissionID int) error
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID int) error
}

// changeSet is the staged diff for one role.
type changeSet struct {
	add    map[int]bool
	remove map[int]bool
}

func (cs *changeSet) empty() bool {
	return len(cs.add) == 0 && len(cs.remove) == 0
}

// Board stages role-permission edits against a server baseline.
// Safe for concurrent use.
type Board struct {
	api RolePermissionAPI
	log *zap.Logger

	mu       sync.Mutex
	baseline map[int]map[int]bool // roleID -> set of granted permission IDs
	pending  map[int]*changeSet
}

// New creates an empty board over the given API.
func New(api RolePermissionAPI, log *zap.Logger) *Board {
	return &Board{
		api:      api,
		log:      log,
		baseline: make(map[int]map[int]bool),
		pending:  make(map[int]*changeSet),
	}
}

// Refresh re-fetches the authoritative permission sets for all roles
// concurrently and replaces the baseline. Pending edits are kept.
func (b *Board) Refresh(ctx context.Context, roles []models.Role) error {
	fresh := make(map[int]map[int]bool, len(roles))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, role := range roles {
		role := role
		g.Go(func() error {
			perms, err := b.api.PermissionsOfRole(ctx, role.ID)
			if err != nil {
				return err
			}
			set := make(map[int]bool, len(perms))
			for _, p := range perms {
				set[p.ID] = true
			}
			mu.Lock()
			fresh[role.ID] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.baseline = fresh
	b.mu.Unlock()
	return nil
}

// Toggle records a checkbox change for (roleID, permissionID). The
// intended add or remove is staged only when the new value differs from
// the baseline; toggling back to the baseline clears the pending entry.
func (b *Board) Toggle(roleID, permissionID int, checked bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cs := b.pending[roleID]
	if cs == nil {
		cs = &changeSet{add: make(map[int]bool), remove: make(map[int]bool)}
		b.pending[roleID] = cs
	}

	if checked != b.baseline[roleID][permissionID] {
		if checked {
			cs.add[permissionID] = true
			delete(cs.remove, permissionID)
		} else {
			cs.remove[permissionID] = true
			delete(cs.add, permissionID)
		}
	} else {
		delete(cs.add, permissionID)
		delete(cs.remove, permissionID)
	}
	if cs.empty() {
		delete(b.pending, roleID)
	}
}

// Checked reports the effective state of (roleID, permissionID):
// the staged value when one exists, otherwise the baseline.
func (b *Board) Checked(roleID, permissionID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cs := b.pending[roleID]; cs != nil {
		if cs.add[permissionID] {
			return true
		}
		if cs.remove[permissionID] {
			return false
		}
	}
	return b.baseline[roleID][permissionID]
}

// Dirty reports whether any edits are staged.
func (b *Board) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) > 0
}

// Pending returns the staged additions and removals for one role,
// sorted for stable display.
func (b *Board) Pending(roleID int) (add, remove []int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cs := b.pending[roleID]; cs != nil {
		for id := range cs.add {
			add = append(add, id)
		}
		for id := range cs.remove {
			remove = append(remove, id)
		}
	}
	sort.Ints(add)
	sort.Ints(remove)
	return add, remove
}

// Save materializes the staged diff as a concurrent batch of individual
// add/remove calls. Each sub-operation's failure is logged and swallowed
// so siblings are never cancelled. The diff is cleared and the baseline
// re-fetched from the server regardless of individual failures:
// read-after-write consistency comes from the server, not from the
// optimistic diff.
func (b *Board) Save(ctx context.Context, roles []models.Role) error {
	b.mu.Lock()
	staged := b.pending
	b.pending = make(map[int]*changeSet)
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for roleID, cs := range staged {
		roleID := roleID
		for permID := range cs.add {
			permID := permID
			g.Go(func() error {
				if err := b.api.AddPermissionToRole(gctx, roleID, permID); err != nil {
					b.log.Error("failed to add permission",
						zap.Int("role_id", roleID), zap.Int("permission_id", permID), zap.Error(err))
				}
				return nil
			})
		}
		for permID := range cs.remove {
			permID := permID
			g.Go(func() error {
				if err := b.api.RemovePermissionFromRole(gctx, roleID, permID); err != nil {
					b.log.Error("failed to remove permission",
						zap.Int("role_id", roleID), zap.Int("permission_id", permID), zap.Error(err))
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	return b.Refresh(ctx, roles)
}
