// Package api implements the typed HTTP client for the Wiki API.
//
// All server communication goes through this single egress point. Two
// cross-cutting behaviors are enforced on every call: outgoing requests
// carry the persisted bearer credential and JSON headers, and a 401
// response triggers the single-flight session recovery flow (expiry
// acknowledgment, guest re-issuance, forced navigation) at most once
// per request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mfadhilr/wikiclient/internal/client/session"
	"github.com/mfadhilr/wikiclient/internal/client/store"
	"github.com/mfadhilr/wikiclient/internal/models"
)

// ErrSessionExpired is returned for a request that failed with 401.
// By the time the caller sees it the recovery flow has already run (or
// been awaited); the original request is intentionally never replayed,
// since the forced navigation supersedes it.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response other than the recovered 401.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.Status, e.Body)
}

// Client provides strongly-typed access to the Wiki REST API.
// Client instances are safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL string
	http    *http.Client
	store   *store.Store
	guard   *session.Guard
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default 5 second request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Wiki API client. baseURL should include the /api prefix
// and carry no trailing slash.
func New(baseURL string, st *store.Store, guard *session.Guard, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		store:   st,
		guard:   guard,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs a request with full interceptor behavior.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, body, out, true)
}

// send performs one HTTP round trip. allowRecovery marks whether a 401
// may enter the recovery flow; the flow's own requests pass false, so a
// request that already went through recovery is terminal on a second
// 401 rather than recursing.
func (c *Client) send(ctx context.Context, method, path string, body, out any, allowRecovery bool) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && allowRecovery {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.recoverSession(ctx)
		return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// recoverSession runs the expiry recovery flow under the single-flight
// guard: acknowledge (or first-visit suppression), mint a guest
// credential, persist it, force navigation back to the landing surface.
// A failed guest issuance still redirects; the user must never be left
// on a dead session. Losers of the guard race simply wait the owner out.
func (c *Client) recoverSession(ctx context.Context) {
	if !c.guard.Begin() {
		if err := c.guard.Wait(ctx); err != nil {
			c.log.Warn("abandoned wait for session recovery", zap.Error(err))
		}
		return
	}
	defer c.guard.End()

	if err := c.guard.Acknowledge(ctx); err != nil {
		c.log.Warn("expiry acknowledgment interrupted", zap.Error(err))
	}

	var grant models.GuestGrant
	if err := c.send(ctx, http.MethodGet, "/guest", nil, &grant, false); err != nil {
		c.log.Error("failed to get guest token", zap.Error(err))
		c.guard.Redirect()
		return
	}

	c.store.SetToken(grant.Token)
	c.store.SetIdentity(&models.Identity{
		Role:        grant.Role,
		RoleID:      grant.RoleID,
		Permissions: grant.Permissions,
	})
	c.log.Info("session recovered with guest credential", zap.String("role", grant.Role))
	c.guard.Redirect()
}
