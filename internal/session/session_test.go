package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
)

func testIdentity() ctxutil.Identity {
	return ctxutil.Identity{UserID: uuid.New(), Email: "ada@example.com"}
}

func input(name, brand string) evaluation.Concept {
	return evaluation.Concept{
		Name: name, Entertaining: 8, Daring: 6, Gripping: 7, Experiential: 9, Subversive: 5,
		BrandName: brand,
	}
}

func TestAddConceptAssignsPaletteColorsInOrder(t *testing.T) {
	s := New(testIdentity())
	for i := 0; i < len(Palette)+2; i++ {
		c, err := s.AddConcept(input(fmt.Sprintf("c%d", i), ""))
		require.NoError(t, err)
		assert.Equal(t, Palette[i%len(Palette)], c.Color)
	}
}

func TestAddConceptDefaultsSourceAndHidesForm(t *testing.T) {
	s := New(testIdentity())
	require.True(t, s.Snapshot().ShowForm)

	c, err := s.AddConcept(input("Ad A", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, evaluation.SourceManual, c.Source)
	assert.False(t, s.Snapshot().ShowForm)

	ai := input("Ad B", "Acme")
	ai.Source = evaluation.SourceAIGenerated
	c, err = s.AddConcept(ai)
	require.NoError(t, err)
	assert.Equal(t, evaluation.SourceAIGenerated, c.Source)
}

func TestAddConceptRejectsOutOfRange(t *testing.T) {
	s := New(testIdentity())
	bad := input("Ad A", "")
	bad.Daring = 11
	_, err := s.AddConcept(bad)
	assert.ErrorIs(t, err, evaluation.ErrInvalidConcept)
	assert.Empty(t, s.Concepts())
}

func TestSameBrandScenario(t *testing.T) {
	s := New(testIdentity())
	_, err := s.AddConcept(input("Ad A", "Acme"))
	require.NoError(t, err)
	_, err = s.AddConcept(input("Ad B", "Acme"))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Collections, 1)
	assert.Equal(t, "Acme", snap.Collections[0].Name)
	require.Len(t, snap.Collections[0].Concepts, 2)
	assert.Equal(t, "Ad A", snap.Collections[0].Concepts[0].Name)
	assert.Equal(t, "Ad B", snap.Collections[0].Concepts[1].Name)
}

func TestRemoveConcept(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("solo", "Globex"))
	_, _ = s.AddConcept(input("other", "Acme"))

	removed, err := s.RemoveConcept(0)
	require.NoError(t, err)
	assert.Equal(t, "solo", removed.Name)

	snap := s.Snapshot()
	require.Len(t, snap.Concepts, 1)
	require.Len(t, snap.Collections, 1)
	assert.Equal(t, "Acme", snap.Collections[0].Name)
}

func TestIndexBounds(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("only", ""))

	for _, idx := range []int{-1, 1, 5} {
		_, err := s.RemoveConcept(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = s.RenameConcept(idx, "x")
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	assert.Len(t, s.Concepts(), 1)
}

func TestRenameReplacesOnlyName(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("a", "Acme"))
	orig, _ := s.AddConcept(input("b", "Acme"))
	_, _ = s.AddConcept(input("c", "Acme"))

	renamed, err := s.RenameConcept(1, "b2")
	require.NoError(t, err)
	assert.Equal(t, "b2", renamed.Name)
	assert.Equal(t, orig.Color, renamed.Color)
	assert.Equal(t, orig.Daring, renamed.Daring)

	snap := s.Snapshot()
	assert.Equal(t, "b2", snap.Concepts[1].Name)
	assert.Equal(t, "b2", snap.Collections[0].Concepts[1].Name)
}

func TestRenameRejectsBlankName(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("a", ""))
	_, err := s.RenameConcept(0, "  ")
	assert.ErrorIs(t, err, evaluation.ErrInvalidConcept)
	assert.Equal(t, "a", s.Concepts()[0].Name)
}

func TestHighlight(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("a", ""))
	_, _ = s.AddConcept(input("b", ""))

	assert.Equal(t, "a", s.ToggleHighlight("a"))
	assert.Equal(t, "", s.ToggleHighlight("a"))

	s.ToggleHighlight("a")
	_, err := s.RenameConcept(0, "a2")
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().HighlightedConcept)
	assert.Equal(t, "a2", *s.Snapshot().HighlightedConcept)

	_, err = s.RemoveConcept(0)
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot().HighlightedConcept)
}

func TestLoadAppliesAtMostOnce(t *testing.T) {
	s := New(testIdentity())
	ticket := s.BeginLoad()

	persisted := []evaluation.Concept{input("saved 1", "Acme"), input("saved 2", "")}
	persisted[0].Color = "#F97316"
	require.NoError(t, s.ApplyLoad(ticket, persisted, 2, true))
	assert.ErrorIs(t, s.ApplyLoad(ticket, persisted, 2, true), ErrStaleLoad)

	snap := s.Snapshot()
	require.Len(t, snap.Concepts, 2)
	assert.Equal(t, "#F97316", snap.Concepts[0].Color)
	assert.False(t, snap.ShowForm)
	assert.Len(t, snap.Collections, 2)
	require.NotNil(t, snap.RemoteConfirmedCount)
	assert.Equal(t, 2, *snap.RemoteConfirmedCount)
}

func TestLoadSupersededTicketIsStale(t *testing.T) {
	s := New(testIdentity())
	first := s.BeginLoad()
	second := s.BeginLoad()
	assert.ErrorIs(t, s.ApplyLoad(first, []evaluation.Concept{input("x", "")}, 1, true), ErrStaleLoad)
	assert.NoError(t, s.ApplyLoad(second, nil, 0, true))
}

func TestLoadEmptyKeepsLocalList(t *testing.T) {
	s := New(testIdentity())
	_, _ = s.AddConcept(input("local", ""))
	require.NoError(t, s.ApplyLoad(s.BeginLoad(), nil, 7, true))

	snap := s.Snapshot()
	assert.Len(t, snap.Concepts, 1)
	assert.Equal(t, 1, snap.LocalSessionConcepts)
	assert.Equal(t, 7, *snap.RemoteConfirmedCount)
}

func TestLoadWithUnknownCountKeepsLastConfirmed(t *testing.T) {
	s := New(testIdentity())
	require.NoError(t, s.ApplyLoad(s.BeginLoad(), nil, 0, false))
	assert.Nil(t, s.Snapshot().RemoteConfirmedCount)

	s.ConfirmRemoteCount(3)
	require.NoError(t, s.ApplyLoad(s.BeginLoad(), []evaluation.Concept{input("saved", "")}, 0, false))
	snap := s.Snapshot()
	require.Len(t, snap.Concepts, 1)
	require.NotNil(t, snap.RemoteConfirmedCount)
	assert.Equal(t, 3, *snap.RemoteConfirmedCount)
}

func TestLoadAfterCloseIsDiscarded(t *testing.T) {
	s := New(testIdentity())
	ticket := s.BeginLoad()
	s.Close()
	err := s.ApplyLoad(ticket, []evaluation.Concept{input("late", "")}, 1, true)
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = s.AddConcept(input("late", ""))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBindResetsOnUserChange(t *testing.T) {
	first := testIdentity()
	s := New(first)
	auth := NewBroadcaster()

	var signedIn []uuid.UUID
	s.Bind(auth, func(id ctxutil.Identity) { signedIn = append(signedIn, id.UserID) })
	_, _ = s.AddConcept(input("mine", ""))
	pending := s.BeginLoad()

	auth.Publish(ctxutil.Identity{UserID: first.UserID, Email: "new@example.com"})
	assert.Len(t, s.Concepts(), 1)
	assert.Equal(t, "new@example.com", s.Identity().Email)

	second := testIdentity()
	auth.Publish(second)
	assert.Empty(t, s.Concepts())
	assert.True(t, s.Snapshot().ShowForm)
	assert.Equal(t, []uuid.UUID{second.UserID}, signedIn)
	assert.ErrorIs(t, s.ApplyLoad(pending, []evaluation.Concept{input("old", "")}, 1, true), ErrStaleLoad)

	auth.Publish(ctxutil.Identity{})
	assert.Equal(t, []uuid.UUID{second.UserID}, signedIn)

	s.Close()
	assert.Equal(t, 0, auth.Subscribers())
}

func TestRemoteCountIsSeparateFromLocalList(t *testing.T) {
	s := New(testIdentity())
	assert.Nil(t, s.Snapshot().RemoteConfirmedCount)

	_, _ = s.AddConcept(input("a", ""))
	_, _ = s.AddConcept(input("b", ""))
	s.ConfirmRemoteCount(1)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.LocalSessionConcepts)
	assert.Equal(t, 1, *snap.RemoteConfirmedCount)
}
