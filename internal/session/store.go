package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
	"github.com/lnbits/lnbits-mcp-server/internal/lnbits"
)

// Options configure a Store.
type Options struct {
	// TTL is the idle expiry window. Zero means the 60 minute default.
	TTL time.Duration
	// SweepInterval is the background sweep tick. Zero means 60 seconds.
	SweepInterval time.Duration
	// AutoCreate enables the remote-deployment policy: referencing an unseen
	// session id creates a brand-new unconfigured session under that id, and
	// an empty session id gets a fresh anonymous session instead of the
	// shared default.
	AutoCreate bool
	// Defaults, when set, seeds the default session only. It is never used
	// to backfill any other session's missing credentials, and it is ignored
	// entirely in AutoCreate mode.
	Defaults *config.Config
}

// Store is the process-wide session registry. The map is guarded by a
// read-write lock; per-session state is swapped atomically, so one session's
// reconfiguration never blocks another session's calls.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts Options

	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a Store and starts its background expiry sweeper. In
// local (non-AutoCreate) mode the default session is created up front,
// seeded from Options.Defaults when present.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = 60 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 60 * time.Second
	}
	st := &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		done:     make(chan struct{}),
	}
	if !opts.AutoCreate {
		st.sessions[DefaultSessionID] = newSession(DefaultSessionID, opts.Defaults, time.Now())
	}
	go st.sweepLoop()
	return st
}

// Create registers a new session with a generated id, optionally seeded with
// an initial config, and returns the id.
func (st *Store) Create(initial *config.Config) string {
	id := uuid.NewString()
	now := time.Now()

	st.mu.Lock()
	st.sessions[id] = newSession(id, initial, now)
	total := len(st.sessions)
	st.mu.Unlock()

	log.Printf("session created: %s (total=%d)", id, total)
	return id
}

// Get returns the session for id and updates its last-accessed time. An
// unknown id yields ErrNotFound, unless AutoCreate is enabled, in which case
// a brand-new unconfigured session is registered under that id — an expired
// id is never rehydrated, only recreated empty.
func (st *Store) Get(id string) (*Session, error) {
	now := time.Now()

	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(now)
		return s, nil
	}

	if !st.opts.AutoCreate && id != DefaultSessionID {
		return nil, ErrNotFound
	}

	// The default session, if swept while idle, is recreated from the
	// environment seed; any other unseen id gets a fresh empty session.
	var seed *config.Config
	if id == DefaultSessionID && !st.opts.AutoCreate {
		seed = st.opts.Defaults
	}

	st.mu.Lock()
	// Another caller may have created it between the two lock scopes.
	if s, ok = st.sessions[id]; !ok {
		s = newSession(id, seed, now)
		st.sessions[id] = s
		log.Printf("session auto-created: %s (total=%d)", id, len(st.sessions))
	}
	st.mu.Unlock()

	s.touch(now)
	return s, nil
}

// Resolve maps a possibly empty session id from a tool call to a session.
// Empty means the implicit default session in local mode, or a fresh
// anonymous session in AutoCreate (remote) mode.
func (st *Store) Resolve(id string) (*Session, error) {
	if id == "" {
		if st.opts.AutoCreate {
			return st.Get(st.Create(nil))
		}
		id = DefaultSessionID
	}
	return st.Get(id)
}

// Configure builds a new config from raw values and atomically replaces the
// session's config+client pair. On validation failure the session's current
// binding stays in place — the session never degrades to a partially
// updated state.
func (st *Store) Configure(id string, raw config.RawValues) error {
	s, err := st.Get(id)
	if err != nil {
		return err
	}
	cfg, err := config.Build(raw)
	if err != nil {
		return err
	}
	s.binding.Store(&Binding{Config: cfg, Client: lnbits.New(cfg)})
	log.Printf("session configured: %s", s.ID())
	return nil
}

// Destroy removes a session immediately, releasing its credentials.
func (st *Store) Destroy(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if !ok {
		return false
	}
	s.drop()
	log.Printf("session destroyed: %s", id)
	return true
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes every session idle longer than the TTL as of now, dropping
// each removed session's credentials synchronously with its removal. It
// returns the number of sessions removed.
func (st *Store) Sweep(now time.Time) int {
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if now.Sub(s.lastAccessed()) > st.opts.TTL {
			delete(st.sessions, id)
			expired = append(expired, s)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.drop()
		log.Printf("session expired: %s", s.ID())
	}
	return len(expired)
}

// Close tears down all sessions and stops the sweeper. Secrets are released
// as part of teardown.
func (st *Store) Close() {
	st.closeOnce.Do(func() {
		close(st.done)

		st.mu.Lock()
		sessions := st.sessions
		st.sessions = make(map[string]*Session)
		st.mu.Unlock()

		for _, s := range sessions {
			s.drop()
		}
	})
}

func (st *Store) sweepLoop() {
	ticker := time.NewTicker(st.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			st.Sweep(time.Now())
		}
	}
}
