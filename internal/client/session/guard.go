// Package session owns the client session: the persisted credential and
// identity, the bootstrap and login flows, and the single-flight expiry
// recovery gate the HTTP client coordinates through.
package session

import (
	"context"
	"sync"

	"github.com/mfadhilr/wikiclient/internal/client/store"
	"go.uber.org/zap"
)

// LandingPath is the anonymous landing surface.
const LandingPath = "/"

// Notifier blocks until the user acknowledges that the session expired.
// The presentation layer implements it; the recovery flow calls it at
// most once per expiry.
type Notifier interface {
	Confirm(ctx context.Context) error
}

// Navigator abstracts the client's notion of "current page" and forced
// navigation, the counterpart of window.location in the source design.
type Navigator interface {
	// Path returns the current surface path.
	Path() string
	// Replace forces navigation to path, abandoning the current surface.
	Replace(path string)
	// Reload re-renders the current surface from scratch.
	Reload()
}

// Guard is the process-wide mutual exclusion for the 401 recovery flow.
// At most one recovery runs at a time; concurrent losers wait for the
// owner to finish. It also owns the first-visit suppression rule for
// the expiry notifier.
type Guard struct {
	store    *store.Store
	notifier Notifier
	nav      Navigator
	log      *zap.Logger

	mu     sync.Mutex
	flight chan struct{} // non-nil while a recovery is in progress
}

// NewGuard builds a Guard over the given store, notifier and navigator.
func NewGuard(st *store.Store, notifier Notifier, nav Navigator, log *zap.Logger) *Guard {
	return &Guard{store: st, notifier: notifier, nav: nav, log: log}
}

// Begin attempts to claim the recovery flow. It returns true when the
// caller now owns it and must call End exactly once; false when another
// request already holds it, in which case Wait observes its completion.
func (g *Guard) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flight != nil {
		return false
	}
	g.flight = make(chan struct{})
	return true
}

// End releases the recovery flow and wakes all waiters.
func (g *Guard) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flight != nil {
		close(g.flight)
		g.flight = nil
	}
}

// Wait blocks until the in-flight recovery (if any) completes.
func (g *Guard) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.flight
	g.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acknowledge shows the session-expiry notifier and blocks until the
// user dismisses it. On the landing surface during the very first visit
// the notifier is suppressed entirely and the first-visit marker is
// set: a brand-new session never had a real token to expire.
func (g *Guard) Acknowledge(ctx context.Context) error {
	if g.nav.Path() == LandingPath && !g.store.FirstVisitDone() {
		g.store.MarkFirstVisit()
		g.log.Info("suppressing expiry notifier on first visit")
		return nil
	}
	return g.notifier.Confirm(ctx)
}

// Redirect forces the post-recovery navigation: back to the landing
// surface, or a full reload when already there. Either way the surface
// that triggered recovery is abandoned.
func (g *Guard) Redirect() {
	if g.nav.Path() != LandingPath {
		g.nav.Replace(LandingPath)
		return
	}
	g.nav.Reload()
}
