// Package store persists the client session: the bearer token, the
// cached identity, and the first-visit marker. It is the Go counterpart
// of the browser's local storage keys and the only shared mutable
// state in the client.
package store

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/mfadhilr/wikiclient/internal/models"
	"go.uber.org/zap"
)

// state is the on-disk shape of the session file.
type state struct {
	Token      string           `json:"token,omitempty"`
	User       *models.Identity `json:"user,omitempty"`
	FirstVisit bool             `json:"is_first_visit,omitempty"`
}

// Store is a file-backed session store. Reads tolerate a missing or
// corrupt file and degrade to "no session". Writes are last-writer-wins;
// every mutation is flushed to disk and fanned out to subscribers.
type Store struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	state state
	subs  []func()
}

// Open loads the session file at path. A missing file yields an empty
// session; a corrupt file is logged and discarded rather than surfaced,
// so a damaged session can never wedge the client.
func Open(path string, log *zap.Logger) (*Store, error) {
	s := &Store{path: path, log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		log.Warn("discarding corrupt session file", zap.String("path", path), zap.Error(err))
		s.state = state{}
	}
	return s, nil
}

// Token returns the stored credential, or "" when absent.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// SetToken stores a new credential.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.state.Token = token
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

// Identity returns a copy of the cached identity, or nil when absent.
func (s *Store) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return nil
	}
	id := *s.state.User
	id.Permissions = append([]string(nil), s.state.User.Permissions...)
	return &id
}

// SetIdentity stores a new cached identity. The store keeps its own
// copy, so the caller may keep mutating the argument afterwards without
// racing concurrent Identity readers.
func (s *Store) SetIdentity(id *models.Identity) {
	s.mu.Lock()
	if id == nil {
		s.state.User = nil
	} else {
		cp := *id
		cp.Permissions = append([]string(nil), id.Permissions...)
		s.state.User = &cp
	}
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

// FirstVisitDone reports whether a first visit has already been recorded.
func (s *Store) FirstVisitDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FirstVisit
}

// MarkFirstVisit records that the landing surface has been visited once.
func (s *Store) MarkFirstVisit() {
	s.mu.Lock()
	s.state.FirstVisit = true
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

// Clear drops the token and identity, keeping the first-visit marker.
func (s *Store) Clear() {
	s.mu.Lock()
	s.state.Token = ""
	s.state.User = nil
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to be called after every mutation. This is the
// change-notification channel surfaces re-derive their identity from.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// saveLocked flushes the current state to disk. Persistence failures
// are logged, not propagated: an unwritable session file must not block
// the in-memory session.
func (s *Store) saveLocked() {
	data, err := json.Marshal(&s.state)
	if err != nil {
		s.log.Error("failed to encode session", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error("failed to write session file", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
