// Package notice implements transient user-facing messages that clear
// themselves after a display window.
package notice

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// DefaultTTL is how long a notice stays visible unless dismissed or replaced.
const DefaultTTL = 5 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Notice struct {
	Kind Kind
	Text string
}

// Board holds at most one notice at a time. Every Show arms a fresh dismiss
// timer and stops the previous one, so an old timer can never clear a newer
// message.
type Board struct {
	mu       sync.Mutex
	clock    clock.Clock
	ttl      time.Duration
	current  *Notice
	timer    *clock.Timer
	gen      uint64
	closed   bool
	onChange func(*Notice)
}

type Option func(*Board)

// WithClock substitutes the time source, normally clock.NewMock() in tests.
func WithClock(c clock.Clock) Option {
	return func(b *Board) { b.clock = c }
}

func WithTTL(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.ttl = d
		}
	}
}

// WithOnChange registers a callback invoked with the new notice (nil when
// cleared). It runs outside the board's lock.
func WithOnChange(fn func(*Notice)) Option {
	return func(b *Board) { b.onChange = fn }
}

func NewBoard(opts ...Option) *Board {
	b := &Board{clock: clock.New(), ttl: DefaultTTL}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Success(text string) { b.Show(KindSuccess, text) }
func (b *Board) Error(text string)   { b.Show(KindError, text) }
func (b *Board) Info(text string)    { b.Show(KindInfo, text) }

// Show replaces the current notice and restarts the display window.
func (b *Board) Show(kind Kind, text string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.gen++
	gen := b.gen
	n := Notice{Kind: kind, Text: text}
	b.current = &n
	b.timer = b.clock.AfterFunc(b.ttl, func() { b.expire(gen) })
	b.mu.Unlock()

	b.notify(&n)
}

// Current returns the visible notice, if any.
func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Dismiss clears the notice early.
func (b *Board) Dismiss() {
	b.mu.Lock()
	had := b.current != nil
	b.stopLocked()
	b.gen++
	b.current = nil
	b.mu.Unlock()

	if had {
		b.notify(nil)
	}
}

// Close cancels any pending timer. Later Show calls are ignored.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	b.gen++
	b.current = nil
	b.closed = true
}

func (b *Board) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.current == nil {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.timer = nil
	b.mu.Unlock()

	b.notify(nil)
}

func (b *Board) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Board) notify(n *Notice) {
	if b.onChange != nil {
		b.onChange(n)
	}
}
