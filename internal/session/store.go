package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	session *Session
	auth    *Broadcaster
}

// Store keeps one Session per signed-in user.
type Store struct {
	log     *logger.Logger
	idleTTL time.Duration
	now     func() time.Time

	// OnSignIn, when set, is bound to every new session.
	OnSignIn func(*Session, ctxutil.Identity)

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

func NewStore(log *logger.Logger, idleTTL time.Duration) *Store {
	if log == nil {
		log = logger.Nop()
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		log:      log.With("component", "SessionStore"),
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: map[uuid.UUID]*entry{},
	}
}

// Get returns the user's session, creating and binding it on first use. The
// second result is true when the session was just created.
func (st *Store) Get(id ctxutil.Identity) (*Session, bool) {
	st.mu.Lock()
	e, ok := st.sessions[id.UserID]
	if ok {
		st.mu.Unlock()
		// refresh token and email without resetting state
		e.auth.Publish(id)
		return e.session, false
	}

	s := New(id, WithClock(st.now), WithLogger(st.log))
	e = &entry{session: s, auth: NewBroadcaster()}
	st.sessions[id.UserID] = e
	st.mu.Unlock()

	var onSignIn func(ctxutil.Identity)
	if st.OnSignIn != nil {
		hook := st.OnSignIn
		onSignIn = func(next ctxutil.Identity) { hook(s, next) }
	}
	s.Bind(e.auth, onSignIn)
	st.log.Debug("session created", "user_id", id.UserID.String())
	return s, true
}

// SignOut publishes an anonymous identity to the user's session and drops it.
func (st *Store) SignOut(userID uuid.UUID) bool {
	st.mu.Lock()
	e, ok := st.sessions[userID]
	if ok {
		delete(st.sessions, userID)
	}
	st.mu.Unlock()
	if !ok {
		return false
	}
	e.auth.Publish(ctxutil.Identity{})
	e.session.Close()
	return true
}

// EvictIdle closes sessions unused for longer than the idle TTL.
func (st *Store) EvictIdle() int {
	cutoff := st.now().Add(-st.idleTTL)

	st.mu.Lock()
	var stale []*entry
	for uid, e := range st.sessions {
		if e.session.idleSince().Before(cutoff) {
			stale = append(stale, e)
			delete(st.sessions, uid)
		}
	}
	st.mu.Unlock()

	for _, e := range stale {
		e.session.Close()
	}
	if len(stale) > 0 {
		st.log.Info("evicted idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.EvictIdle()
		}
	}
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// CloseAll closes every session, for shutdown.
func (st *Store) CloseAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = map[uuid.UUID]*entry{}
	st.mu.Unlock()
	for _, e := range all {
		e.session.Close()
	}
}
