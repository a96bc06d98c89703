package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
)

func rawFor(key string) config.RawValues {
	return config.RawValues{URL: "https://wallet.example.com", APIKey: key}
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	st := NewStore(opts)
	t.Cleanup(st.Close)
	return st
}

func TestDefaultSessionExistsInLocalMode(t *testing.T) {
	st := newTestStore(t, Options{})

	sess, err := st.Get(DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionID, sess.ID())
	assert.False(t, sess.Configured())

	_, err = sess.Client()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDefaultSessionSeededFromDefaults(t *testing.T) {
	seed, err := config.Build(rawFor("env-key"))
	require.NoError(t, err)
	st := newTestStore(t, Options{Defaults: seed})

	sess, err := st.Get(DefaultSessionID)
	require.NoError(t, err)
	require.True(t, sess.Configured())
	assert.Equal(t, "env-key", sess.Config().APIKey)
}

func TestSessionIsolation(t *testing.T) {
	st := newTestStore(t, Options{})

	a := st.Create(nil)
	b := st.Create(nil)
	require.NoError(t, st.Configure(a, rawFor("secret-A")))
	require.NoError(t, st.Configure(b, rawFor("secret-B")))

	sessA, err := st.Get(a)
	require.NoError(t, err)
	sessB, err := st.Get(b)
	require.NoError(t, err)

	assert.Equal(t, "secret-A", sessA.Config().APIKey)
	assert.Equal(t, "secret-B", sessB.Config().APIKey)

	// Reconfiguring A must not disturb B.
	require.NoError(t, st.Configure(a, rawFor("secret-A2")))
	assert.Equal(t, "secret-A2", sessA.Config().APIKey)
	assert.Equal(t, "secret-B", sessB.Config().APIKey)
}

func TestUnconfiguredSessionNeverBorrowsDefaults(t *testing.T) {
	seed, err := config.Build(rawFor("env-key"))
	require.NoError(t, err)
	st := newTestStore(t, Options{Defaults: seed})

	id := st.Create(nil)
	sess, err := st.Get(id)
	require.NoError(t, err)

	assert.False(t, sess.Configured())
	_, err = sess.Client()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfigureInvalidLeavesBindingIntact(t *testing.T) {
	st := newTestStore(t, Options{})

	id := st.Create(nil)
	require.NoError(t, st.Configure(id, rawFor("good-key")))

	err := st.Configure(id, config.RawValues{URL: "not-a-url", APIKey: "k"})
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	sess, err := st.Get(id)
	require.NoError(t, err)
	require.True(t, sess.Configured())
	assert.Equal(t, "good-key", sess.Config().APIKey)
}

func TestConcurrentConfigureYieldsConsistentBinding(t *testing.T) {
	st := newTestStore(t, Options{})
	id := st.Create(nil)

	keys := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		key := fmt.Sprintf("key-%d", i)
		keys[key] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Configure(id, rawFor(key))
		}()
	}
	wg.Wait()

	sess, err := st.Get(id)
	require.NoError(t, err)
	cfg := sess.Config()
	require.NotNil(t, cfg)
	assert.True(t, keys[cfg.APIKey], "final config must be one of the submitted ones, got %q", cfg.APIKey)

	client, err := sess.Client()
	require.NoError(t, err)
	assert.Same(t, cfg, client.Config(), "config and client must come from the same binding")
}

func TestGetUnknownSession(t *testing.T) {
	st := newTestStore(t, Options{})
	_, err := st.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAutoCreateRegistersUnseenID(t *testing.T) {
	st := newTestStore(t, Options{AutoCreate: true})

	sess, err := st.Get("client-chosen-id")
	require.NoError(t, err)
	assert.Equal(t, "client-chosen-id", sess.ID())
	assert.False(t, sess.Configured())
}

func TestResolveEmptyID(t *testing.T) {
	t.Run("local mode maps to default", func(t *testing.T) {
		st := newTestStore(t, Options{})
		sess, err := st.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, DefaultSessionID, sess.ID())
	})

	t.Run("auto-create mode gets fresh anonymous sessions", func(t *testing.T) {
		st := newTestStore(t, Options{AutoCreate: true})
		s1, err := st.Resolve("")
		require.NoError(t, err)
		s2, err := st.Resolve("")
		require.NoError(t, err)
		assert.NotEqual(t, s1.ID(), s2.ID())
	})
}

func TestDestroy(t *testing.T) {
	st := newTestStore(t, Options{})

	id := st.Create(nil)
	require.NoError(t, st.Configure(id, rawFor("gone-soon")))
	sess, err := st.Get(id)
	require.NoError(t, err)

	assert.True(t, st.Destroy(id))
	assert.False(t, st.Destroy(id), "second destroy is a no-op")

	_, err = st.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	// A stale handle must not keep the secret reachable.
	_, err = sess.Client()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, sess.Config())
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	st := newTestStore(t, Options{TTL: time.Minute, AutoCreate: true})

	id := st.Create(nil)
	require.NoError(t, st.Configure(id, rawFor("expiring")))
	sess, _ := st.Get(id)

	removed := st.Sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, st.Count())

	_, err := sess.Client()
	assert.ErrorIs(t, err, ErrNotConfigured, "expiry drops credentials, not just the map entry")

	// Reusing the expired id yields a fresh, unconfigured session: it is
	// never rehydrated with the old credentials.
	fresh, err := st.Get(id)
	require.NoError(t, err)
	assert.False(t, fresh.Configured())
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	st := newTestStore(t, Options{TTL: time.Minute, AutoCreate: true})

	idle := st.Create(nil)
	active := st.Create(nil)

	later := time.Now().Add(2 * time.Minute)
	activeSess, err := st.Get(active)
	require.NoError(t, err)
	activeSess.touch(later)

	removed := st.Sweep(later)
	assert.Equal(t, 1, removed)

	_, err = st.Get(active)
	assert.NoError(t, err)
	_, err = st.Get(idle)
	assert.NoError(t, err, "auto-create recreates the swept id empty")
}

func TestDefaultSessionRecreatedAfterSweep(t *testing.T) {
	seed, err := config.Build(rawFor("env-key"))
	require.NoError(t, err)
	st := newTestStore(t, Options{TTL: time.Minute, Defaults: seed})

	st.Sweep(time.Now().Add(2 * time.Minute))

	sess, err := st.Get(DefaultSessionID)
	require.NoError(t, err)
	require.True(t, sess.Configured())
	assert.Equal(t, "env-key", sess.Config().APIKey)
}

func TestInfoCarriesNoSecrets(t *testing.T) {
	st := newTestStore(t, Options{})
	id := st.Create(nil)
	require.NoError(t, st.Configure(id, rawFor("hidden-key")))

	sess, err := st.Get(id)
	require.NoError(t, err)

	data, err := json.Marshal(sess.Info())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden-key")
	assert.Contains(t, string(data), `"configured":true`)
}

func TestCloseDropsAllSessions(t *testing.T) {
	st := NewStore(Options{})
	id := st.Create(nil)
	require.NoError(t, st.Configure(id, rawFor("secret")))
	sess, err := st.Get(id)
	require.NoError(t, err)

	st.Close()
	st.Close() // idempotent

	_, err = sess.Client()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, st.Count())
}
