// Package frameloop provides the cooperative per-refresh scheduler that every
// per-frame consumer (analysis, rendering, compositing) runs on.
//
// All frame callbacks and posted tasks execute on the goroutine that calls
// Step or Run, so code scheduled here may touch shared render state without
// locks. Post is the only entry point that may be called from other
// goroutines.
package frameloop

import (
	"context"
	"sync"
	"time"
)

// Tick describes one display refresh.
type Tick struct {
	Frame int64
	Now   time.Duration // time since the loop started
	Delta time.Duration // time since the previous tick
}

// Handle identifies a pending frame request.
type Handle uint64

// Callback runs once on the next refresh.
type Callback func(Tick)

type request struct {
	handle Handle
	fn     Callback
}

// Loop schedules one-shot frame callbacks in the manner of
// requestAnimationFrame: callbacks requested while a frame is running are
// deferred to the next frame.
type Loop struct {
	mu       sync.Mutex
	next     Handle
	pending  []request
	running  []request
	canceled map[Handle]struct{}
	posted   []func()
	wake     chan struct{}

	frame int64
	last  time.Duration
	ran   bool
}

// New constructs an idle loop.
func New() *Loop {
	return &Loop{
		canceled: make(map[Handle]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// RequestFrame schedules fn for the next refresh and returns a handle that
// can cancel it.
func (l *Loop) RequestFrame(fn Callback) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.pending = append(l.pending, request{handle: l.next, fn: fn})
	return l.next
}

// CancelFrame drops a pending request. Cancelling a handle that already ran
// or was never issued is a no-op.
func (l *Loop) CancelFrame(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, set := range [][]request{l.pending, l.running} {
		for _, req := range set {
			if req.handle == h {
				l.canceled[h] = struct{}{}
				return
			}
		}
	}
}

// Post queues fn to run on the loop goroutine before the next frame's
// callbacks. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many frame requests are waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, req := range l.pending {
		if _, ok := l.canceled[req.handle]; !ok {
			n++
		}
	}
	return n
}

// Frame returns the number of frames run so far.
func (l *Loop) Frame() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Drain runs posted tasks without advancing the frame counter.
func (l *Loop) Drain() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}

// Step runs one refresh at the given loop time: posted tasks first, then
// every frame callback requested before this call, in request order.
func (l *Loop) Step(now time.Duration) {
	l.Drain()

	l.mu.Lock()
	due := l.pending
	l.pending = nil
	l.running = due
	delta := time.Duration(0)
	if l.ran {
		delta = now - l.last
	}
	l.last = now
	l.ran = true
	l.frame++
	tick := Tick{Frame: l.frame, Now: now, Delta: delta}
	l.mu.Unlock()

	for _, req := range due {
		if l.consumeCancel(req.handle) {
			continue
		}
		req.fn(tick)
	}

	l.mu.Lock()
	for _, req := range due {
		delete(l.canceled, req.handle)
	}
	l.running = nil
	l.mu.Unlock()
}

func (l *Loop) consumeCancel(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.canceled[h]; ok {
		delete(l.canceled, h)
		return true
	}
	return false
}

// Await runs posted tasks until done is closed or ctx ends, without
// advancing frames. Offline drivers use it to let asynchronous completions
// land after their last frame.
func (l *Loop) Await(ctx context.Context, done <-chan struct{}) error {
	for {
		l.Drain()
		select {
		case <-done:
			l.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run drives Step from a wall-clock ticker until ctx is cancelled. Posted
// tasks are also run between refreshes so cross-goroutine events are not
// delayed by a full frame.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.Drain()
			return ctx.Err()
		case <-l.wake:
			l.Drain()
		case <-ticker.C:
			l.Step(time.Since(start))
		}
	}
}
