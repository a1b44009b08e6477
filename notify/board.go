package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Board keeps the currently visible notifications. Entries dismiss
// themselves after their TTL.
type Board struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	limit   int
	entries []Notification
	timers  map[string]clockwork.Timer
	closed  bool
	onDrop  func(Notification)
}

// BoardOption configures a [Board].
type BoardOption func(*Board)

// WithBoardClock sets the clock driving auto-dismissal.
func WithBoardClock(clock clockwork.Clock) BoardOption {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithLimit caps the number of visible entries; the oldest is evicted.
func WithLimit(n int) BoardOption {
	return func(b *Board) { b.limit = n }
}

// WithDismissHook is called, outside the board lock, for each entry that
// leaves the board by any path.
func WithDismissHook(fn func(Notification)) BoardOption {
	return func(b *Board) { b.onDrop = fn }
}

// NewBoard returns a board using ttl for entries that carry none.
func NewBoard(ttl time.Duration, opts ...BoardOption) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b := &Board{
		clock:  clockwork.NewRealClock(),
		ttl:    ttl,
		timers: map[string]clockwork.Timer{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Notify(_ context.Context, n Notification) {
	if n.ID == "" {
		n.ID = New(n.Severity, n.Key, n.Message).ID
	}
	if n.TTL <= 0 {
		n.TTL = b.ttl
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.clock.Now()
	}

	var evicted []Notification
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.entries = append(b.entries, n)
	id := n.ID
	b.timers[id] = b.clock.AfterFunc(n.TTL, func() { b.Dismiss(id) })
	for b.limit > 0 && len(b.entries) > b.limit {
		evicted = append(evicted, b.removeLocked(b.entries[0].ID))
	}
	b.mu.Unlock()

	b.dropped(evicted...)
}

// List returns the visible entries, oldest first.
func (b *Board) List() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries)
}

// Len returns the number of visible entries.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dismiss removes an entry early. It reports whether the entry was visible.
func (b *Board) Dismiss(id string) bool {
	b.mu.Lock()
	n := b.removeLocked(id)
	b.mu.Unlock()

	if n.ID == "" {
		return false
	}
	b.dropped(n)
	return true
}

// Close stops pending timers and clears the board.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.entries = nil
}

func (b *Board) removeLocked(id string) Notification {
	idx := slices.IndexFunc(b.entries, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		return Notification{}
	}
	n := b.entries[idx]
	b.entries = slices.Delete(b.entries, idx, idx+1)
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	return n
}

func (b *Board) dropped(ns ...Notification) {
	if b.onDrop == nil {
		return
	}
	for _, n := range ns {
		b.onDrop(n)
	}
}
