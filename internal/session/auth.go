package session

import (
	"sync"

	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
)

// Broadcaster is an in-process AuthSource. Publish calls subscribers in
// subscription order on the caller's goroutine.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func(ctxutil.Identity)
	ids  []int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[int]func(ctxutil.Identity){}}
}

func (b *Broadcaster) Subscribe(fn func(ctxutil.Identity)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.ids = append(b.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.ids {
				if v == id {
					b.ids = append(b.ids[:i], b.ids[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Broadcaster) Publish(id ctxutil.Identity) {
	b.mu.Lock()
	fns := make([]func(ctxutil.Identity), 0, len(b.ids))
	for _, k := range b.ids {
		fns = append(fns, b.subs[k])
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ids)
}
