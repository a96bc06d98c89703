// Package session provides the process-wide registry of isolated per-caller
// credential state. Each session exclusively owns one immutable
// config+client pair; no session ever observes another's credentials, and no
// global default is substituted for a session's own unconfigured state.
package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
	"github.com/lnbits/lnbits-mcp-server/internal/lnbits"
)

var (
	ErrNotFound      = errors.New("SessionNotFound")
	ErrNotConfigured = errors.New("NotConfiguredError")
)

// DefaultSessionID is the implicit session used by the single-user local
// deployment mode. It is a configuration-time constant: session lookup is
// identical in both modes, only this constant differs.
const DefaultSessionID = "default"

// Binding is an immutable config+client pair. Reconfiguration constructs a
// new Binding and swaps the session's pointer atomically, so a concurrent
// reader always sees a complete, consistent pair — never torn state.
type Binding struct {
	Config *config.Config
	Client *lnbits.Client
}

// Session is one caller's isolated unit of credential state.
type Session struct {
	id        string
	createdAt time.Time

	lastAccess atomic.Int64 // unix nanos
	binding    atomic.Pointer[Binding]
}

func newSession(id string, cfg *config.Config, now time.Time) *Session {
	s := &Session{id: id, createdAt: now}
	s.lastAccess.Store(now.UnixNano())
	if cfg != nil {
		s.binding.Store(&Binding{Config: cfg, Client: lnbits.New(cfg)})
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Client returns the session's API client, or ErrNotConfigured if no valid
// config has been set for this session.
func (s *Session) Client() (*lnbits.Client, error) {
	b := s.binding.Load()
	if b == nil {
		return nil, ErrNotConfigured
	}
	return b.Client, nil
}

// Config returns the session's current config, or nil when unconfigured.
func (s *Session) Config() *config.Config {
	b := s.binding.Load()
	if b == nil {
		return nil
	}
	return b.Config
}

// Configured reports whether the session holds a usable config.
func (s *Session) Configured() bool {
	return s.binding.Load() != nil
}

func (s *Session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

func (s *Session) lastAccessed() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// drop releases the binding so the secret is unreachable even through a
// stale *Session handle held elsewhere.
func (s *Session) drop() {
	s.binding.Store(nil)
}

// Info is the session metadata exposed by the session-info tool. It carries
// no secret material.
type Info struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Configured   bool      `json:"configured"`
}

// Info returns the session's metadata snapshot.
func (s *Session) Info() Info {
	return Info{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastAccessed: s.lastAccessed(),
		Configured:   s.Configured(),
	}
}
