package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetSession(t *testing.T) {
	m := NewManager()

	sess := m.CreateSession()
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.IsInitialized())

	got, err := m.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestGetSessionNotFound(t *testing.T) {
	m := NewManager()

	_, err := m.GetSession("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRemoveSession(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	m.RemoveSession(sess.ID)

	_, err := m.GetSession(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCleanupSessions(t *testing.T) {
	m := NewManager()

	stale := m.CreateSession()
	stale.mu.Lock()
	stale.LastAccessedAt = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	fresh := m.CreateSession()

	m.CleanupSessions(30 * time.Minute)

	_, err := m.GetSession(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.GetSession(fresh.ID)
	assert.NoError(t, err)
}

func TestSendWithoutWriter(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	err := sess.Send([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendWritesThroughWriter(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	var got []byte
	sess.SetWriter(func(data []byte) error {
		got = data
		return nil
	})

	require.NoError(t, sess.Send([]byte(`{"jsonrpc":"2.0"}`)))
	assert.Equal(t, `{"jsonrpc":"2.0"}`, string(got))
}

func TestSendSerializesConcurrentWrites(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	var mu sync.Mutex
	var count int
	sess.SetWriter(func([]byte) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Send([]byte(`{}`))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}

func TestCapabilities(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	sess.SetCapabilities(map[string]interface{}{"tools": map[string]interface{}{}})

	_, ok := sess.GetCapability("tools")
	assert.True(t, ok)
	_, ok = sess.GetCapability("sampling")
	assert.False(t, ok)
}

func TestInitializedFlag(t *testing.T) {
	m := NewManager()
	sess := m.CreateSession()

	assert.False(t, sess.IsInitialized())
	sess.SetInitialized(true)
	assert.True(t, sess.IsInitialized())
}
