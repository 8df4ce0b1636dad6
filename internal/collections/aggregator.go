// Package collections groups concepts into brand collections and keeps the
// grouping in step with add, remove and rename on the concept list.
package collections

import (
	"time"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

type Aggregator struct {
	collections []*evaluation.BrandCollection
	newID       func() string
	now         func() time.Time
}

type Option func(*Aggregator)

func WithIDGenerator(fn func() string) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.newID = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.now = fn
		}
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add appends the concept to the collection of its brand, creating the
// collection on first use.
func (a *Aggregator) Add(c *evaluation.Concept) {
	if c == nil {
		return
	}
	brand := c.Brand()
	if col := a.Find(brand); col != nil {
		col.Concepts = append(col.Concepts, c)
		return
	}
	a.collections = append(a.collections, &evaluation.BrandCollection{
		ID:        a.newID(),
		Name:      brand,
		Concepts:  []*evaluation.Concept{c},
		CreatedAt: a.now(),
	})
}

// Remove drops the concept by identity and prunes its collection once empty.
func (a *Aggregator) Remove(c *evaluation.Concept) {
	if c == nil {
		return
	}
	for i, col := range a.collections {
		idx := indexOf(col.Concepts, c)
		if idx < 0 {
			continue
		}
		col.Concepts = append(col.Concepts[:idx:idx], col.Concepts[idx+1:]...)
		if len(col.Concepts) == 0 {
			a.collections = append(a.collections[:i:i], a.collections[i+1:]...)
		}
		return
	}
}

// Rename swaps old for renamed in place. Brand membership does not change.
func (a *Aggregator) Rename(old, renamed *evaluation.Concept) {
	if old == nil || renamed == nil {
		return
	}
	for _, col := range a.collections {
		if idx := indexOf(col.Concepts, old); idx >= 0 {
			col.Concepts[idx] = renamed
			return
		}
	}
	a.Add(renamed)
}

// Rebuild regroups the whole list, ordering collections by first brand seen.
func (a *Aggregator) Rebuild(concepts []*evaluation.Concept) {
	a.collections = nil
	for _, c := range concepts {
		a.Add(c)
	}
}

// Find returns the live collection with exactly this name.
func (a *Aggregator) Find(name string) *evaluation.BrandCollection {
	for _, col := range a.collections {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// Collections returns a snapshot that callers may keep.
func (a *Aggregator) Collections() []evaluation.BrandCollection {
	out := make([]evaluation.BrandCollection, 0, len(a.collections))
	for _, col := range a.collections {
		out = append(out, evaluation.BrandCollection{
			ID:        col.ID,
			Name:      col.Name,
			Concepts:  append([]*evaluation.Concept(nil), col.Concepts...),
			CreatedAt: col.CreatedAt,
		})
	}
	return out
}

func (a *Aggregator) Len() int { return len(a.collections) }

func indexOf(list []*evaluation.Concept, c *evaluation.Concept) int {
	for i, item := range list {
		if item == c {
			return i
		}
	}
	return -1
}
