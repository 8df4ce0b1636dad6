// Package session holds one user's working set of evaluated concepts: the
// live list, its brand collections, and the chart view flags.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/collections"
	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

// Palette is cycled by list length when a concept is added.
var Palette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#EC4899", "#06B6D4", "#F97316",
}

var (
	ErrIndexOutOfRange = errors.New("concept index out of range")
	ErrClosed          = errors.New("session closed")
	ErrStaleLoad       = errors.New("load result no longer applies")
)

// AuthSource reports identity changes. The returned func unsubscribes.
type AuthSource interface {
	Subscribe(fn func(ctxutil.Identity)) (unsubscribe func())
}

// LoadTicket pairs an async fetch of persisted concepts with the session
// state it was started against.
type LoadTicket struct {
	seq    uint64
	userID uuid.UUID
}

type Session struct {
	mu  sync.Mutex
	log *logger.Logger

	identity ctxutil.Identity
	concepts []*evaluation.Concept
	agg      *collections.Aggregator

	showForm    bool
	highlighted string

	// remoteConfirmedCount is the billing counter as last read from storage.
	// It is never derived from len(concepts).
	remoteConfirmedCount int
	remoteKnown          bool

	loadSeq     uint64
	appliedSeq  uint64
	closed      bool
	unsubscribe func()
	lastUsed    time.Time
	now         func() time.Time
}

type Option func(*Session)

func WithAggregator(a *collections.Aggregator) Option {
	return func(s *Session) {
		if a != nil {
			s.agg = a
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		if fn != nil {
			s.now = fn
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func New(identity ctxutil.Identity, opts ...Option) *Session {
	s := &Session{
		log:      logger.Nop(),
		identity: identity,
		agg:      collections.New(),
		showForm: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUsed = s.now()
	return s
}

// Bind subscribes the session to identity changes until Close. onSignIn runs
// outside the session lock whenever a different user signs in.
func (s *Session) Bind(src AuthSource, onSignIn func(ctxutil.Identity)) {
	if src == nil {
		return
	}
	unsub := src.Subscribe(func(id ctxutil.Identity) {
		if s.setIdentity(id) && id.Authenticated() && onSignIn != nil {
			onSignIn(id)
		}
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsub()
		return
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = unsub
	s.mu.Unlock()
}

// setIdentity reports whether the user changed. A user change drops the local
// list and invalidates in-flight loads.
func (s *Session) setIdentity(id ctxutil.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if id.UserID == s.identity.UserID {
		s.identity = id
		return false
	}
	s.log.Info("session identity changed", "session_id", s.identity.UserID.String(), "user_id", id.UserID.String())
	s.identity = id
	s.concepts = nil
	s.agg.Rebuild(nil)
	s.highlighted = ""
	s.showForm = true
	s.remoteConfirmedCount = 0
	s.remoteKnown = false
	s.loadSeq++
	return true
}

// Close unsubscribes from the auth source. Pending loads are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Identity() ctxutil.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// AddConcept colors and appends the concept, then files it in its brand
// collection. The form is hidden afterwards.
func (s *Session) AddConcept(input evaluation.Concept) (*evaluation.Concept, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.touch()

	c := input
	c.Color = Palette[len(s.concepts)%len(Palette)]
	if c.Source == "" {
		c.Source = evaluation.SourceManual
	}
	s.concepts = append(s.concepts, &c)
	s.agg.Add(&c)
	s.showForm = false
	return &c, nil
}

func (s *Session) RemoveConcept(index int) (*evaluation.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(s.concepts) {
		return nil, ErrIndexOutOfRange
	}
	s.touch()

	removed := s.concepts[index]
	s.concepts = append(s.concepts[:index:index], s.concepts[index+1:]...)
	s.agg.Remove(removed)
	if s.highlighted == removed.Name && !s.hasName(removed.Name) {
		s.highlighted = ""
	}
	return removed, nil
}

func (s *Session) RenameConcept(index int, name string) (*evaluation.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(s.concepts) {
		return nil, ErrIndexOutOfRange
	}
	old := s.concepts[index]
	renamed := old.WithName(name)
	if err := renamed.Validate(); err != nil {
		return nil, err
	}
	s.touch()

	s.concepts[index] = renamed
	s.agg.Rename(old, renamed)
	if s.highlighted == old.Name {
		s.highlighted = renamed.Name
	}
	return renamed, nil
}

// Concept returns a copy of the concept at index.
func (s *Session) Concept(index int) (evaluation.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.concepts) {
		return evaluation.Concept{}, ErrIndexOutOfRange
	}
	s.touch()
	return *s.concepts[index], nil
}

// Concepts returns the live list in order. The pointers are shared with the
// session and must not be mutated.
func (s *Session) Concepts() []*evaluation.Concept {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return append([]*evaluation.Concept(nil), s.concepts...)
}

// ToggleHighlight highlights name, or clears the highlight if name is already
// highlighted. It returns the resulting highlight ("" for none).
func (s *Session) ToggleHighlight(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.highlighted == name || name == "" {
		s.highlighted = ""
	} else {
		s.highlighted = name
	}
	return s.highlighted
}

func (s *Session) SetShowForm(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.showForm = show
}

// BeginLoad starts a fetch of persisted concepts. Only the latest ticket
// can be applied, and only once.
func (s *Session) BeginLoad() LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.loadSeq++
	return LoadTicket{seq: s.loadSeq, userID: s.identity.UserID}
}

// ApplyLoad installs a fetched result. A non-empty list replaces the local
// list with its persisted colors and hides the form; collections are rebuilt
// from it. The confirmed usage count is recorded only when countKnown;
// otherwise the last confirmed count stays.
func (s *Session) ApplyLoad(t LoadTicket, persisted []evaluation.Concept, confirmedCount int, countKnown bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if t.seq != s.loadSeq || t.seq == s.appliedSeq || t.userID != s.identity.UserID {
		return ErrStaleLoad
	}
	s.appliedSeq = t.seq
	s.touch()

	if countKnown {
		s.remoteConfirmedCount = confirmedCount
		s.remoteKnown = true
	}
	if len(persisted) == 0 {
		return nil
	}
	list := make([]*evaluation.Concept, 0, len(persisted))
	for i := range persisted {
		c := persisted[i]
		list = append(list, &c)
	}
	s.concepts = list
	s.agg.Rebuild(list)
	s.showForm = false
	if s.highlighted != "" && !s.hasName(s.highlighted) {
		s.highlighted = ""
	}
	return nil
}

// ConfirmRemoteCount records the storage counter after a successful save.
func (s *Session) ConfirmRemoteCount(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteConfirmedCount = count
	s.remoteKnown = true
}

type Snapshot struct {
	UserID               uuid.UUID                    `json:"userId"`
	Concepts             []evaluation.Concept         `json:"concepts"`
	Collections          []evaluation.BrandCollection `json:"collections"`
	ShowForm             bool                         `json:"showForm"`
	HighlightedConcept   *string                      `json:"highlightedConcept"`
	LocalSessionConcepts int                          `json:"localSessionConcepts"`
	RemoteConfirmedCount *int                         `json:"remoteConfirmedCount"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	snap := Snapshot{
		UserID:               s.identity.UserID,
		Concepts:             make([]evaluation.Concept, 0, len(s.concepts)),
		Collections:          s.agg.Collections(),
		ShowForm:             s.showForm,
		LocalSessionConcepts: len(s.concepts),
	}
	for _, c := range s.concepts {
		snap.Concepts = append(snap.Concepts, *c)
	}
	if s.highlighted != "" {
		h := s.highlighted
		snap.HighlightedConcept = &h
	}
	if s.remoteKnown {
		n := s.remoteConfirmedCount
		snap.RemoteConfirmedCount = &n
	}
	return snap
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.lastUsed = s.now()
}

func (s *Session) hasName(name string) bool {
	for _, c := range s.concepts {
		if c.Name == name {
			return true
		}
	}
	return false
}
