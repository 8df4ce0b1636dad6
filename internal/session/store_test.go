package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

func TestStoreReturnsSameSessionPerUser(t *testing.T) {
	st := NewStore(logger.Nop(), time.Minute)
	id := testIdentity()

	s1, created := st.Get(id)
	require.True(t, created)
	s2, created := st.Get(id)
	assert.False(t, created)
	assert.Same(t, s1, s2)

	other, _ := st.Get(testIdentity())
	assert.NotSame(t, s1, other)
	assert.Equal(t, 2, st.Len())
}

func TestStoreRefreshesIdentityWithoutReset(t *testing.T) {
	st := NewStore(logger.Nop(), time.Minute)
	id := testIdentity()
	s, _ := st.Get(id)
	_, _ = s.AddConcept(input("kept", ""))

	id.Token = "fresh"
	st.Get(id)
	assert.Equal(t, "fresh", s.Identity().Token)
	assert.Len(t, s.Concepts(), 1)
}

func TestStoreSignOutClosesSession(t *testing.T) {
	st := NewStore(logger.Nop(), time.Minute)
	id := testIdentity()
	s, _ := st.Get(id)

	assert.True(t, st.SignOut(id.UserID))
	assert.True(t, s.Closed())
	assert.False(t, st.SignOut(id.UserID))

	fresh, created := st.Get(id)
	assert.True(t, created)
	assert.NotSame(t, s, fresh)
}

func TestStoreEvictIdle(t *testing.T) {
	st := NewStore(logger.Nop(), time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	idle, _ := st.Get(testIdentity())
	now = now.Add(50 * time.Second)
	busy, _ := st.Get(testIdentity())

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, st.EvictIdle())
	assert.True(t, idle.Closed())
	assert.False(t, busy.Closed())
	assert.Equal(t, 1, st.Len())
}

func TestStoreOnSignInHook(t *testing.T) {
	st := NewStore(logger.Nop(), time.Minute)
	var calls int
	st.OnSignIn = func(*Session, ctxutil.Identity) { calls++ }

	id := testIdentity()
	st.Get(id)
	st.Get(id)
	assert.Equal(t, 0, calls)
}
