package main

import (
	"bufio"
	"context"
	"fmt"
	"sync"
)

// termSurface is the terminal's notion of the current page. It
// implements session.Notifier (the blocking expiry acknowledgment) and
// session.Navigator (forced navigation after recovery).
type termSurface struct {
	in *bufio.Scanner

	mu    sync.Mutex
	path  string
	stale bool
}

// Confirm blocks until the user acknowledges the expired session.
func (t *termSurface) Confirm(ctx context.Context) error {
	fmt.Println("Your session has expired. You will continue as a guest.")
	fmt.Print("Press Enter to continue... ")
	t.in.Scan()
	return ctx.Err()
}

func (t *termSurface) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

func (t *termSurface) Replace(path string) {
	t.mu.Lock()
	t.path = path
	t.mu.Unlock()
}

// Reload marks the current surface stale. The REPL loop picks the mark
// up and re-renders the landing list before the next prompt; rendering
// cannot happen here because Reload runs inside the recovery flow,
// while the single-flight guard is still held.
func (t *termSurface) Reload() {
	t.mu.Lock()
	t.stale = true
	t.mu.Unlock()
	fmt.Println("Session refreshed, returning to home.")
}

// consumeStale reports whether a reload was requested, clearing the mark.
func (t *termSurface) consumeStale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	stale := t.stale
	t.stale = false
	return stale
}
