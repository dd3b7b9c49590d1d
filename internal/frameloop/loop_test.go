package frameloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRequestFrameRunsOnNextStep(t *testing.T) {
	l := New()
	var got []Tick
	l.RequestFrame(func(tick Tick) { got = append(got, tick) })

	l.Step(16 * time.Millisecond)
	l.Step(32 * time.Millisecond)

	if len(got) != 1 {
		t.Fatalf("expected one-shot callback, got %d runs", len(got))
	}
	if got[0].Frame != 1 || got[0].Now != 16*time.Millisecond {
		t.Fatalf("unexpected tick: %+v", got[0])
	}
}

func TestCallbacksRequestedDuringFrameRunNextFrame(t *testing.T) {
	l := New()
	runs := 0
	var loop Callback
	loop = func(Tick) {
		runs++
		l.RequestFrame(loop)
	}
	l.RequestFrame(loop)

	for i := 1; i <= 5; i++ {
		l.Step(time.Duration(i) * time.Millisecond)
		if runs != i {
			t.Fatalf("after %d steps expected %d runs, got %d", i, i, runs)
		}
	}
	if l.Pending() != 1 {
		t.Fatalf("expected one pending request, got %d", l.Pending())
	}
}

func TestCancelFrame(t *testing.T) {
	l := New()
	ran := false
	h := l.RequestFrame(func(Tick) { ran = true })
	l.CancelFrame(h)
	l.Step(0)
	if ran {
		t.Fatal("cancelled callback ran")
	}
	if l.Pending() != 0 {
		t.Fatalf("expected no pending requests, got %d", l.Pending())
	}
	l.CancelFrame(h)
	l.CancelFrame(0)
}

func TestCancelLaterCallbackWithinSameFrame(t *testing.T) {
	l := New()
	var second Handle
	secondRan := false
	l.RequestFrame(func(Tick) { l.CancelFrame(second) })
	second = l.RequestFrame(func(Tick) { secondRan = true })
	l.Step(0)
	if secondRan {
		t.Fatal("callback cancelled earlier in the frame still ran")
	}
}

func TestPostRunsBeforeFrameCallbacks(t *testing.T) {
	l := New()
	var order []string
	l.RequestFrame(func(Tick) { order = append(order, "frame") })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Post(func() { order = append(order, "posted") })
	}()
	wg.Wait()

	l.Step(0)
	if len(order) != 2 || order[0] != "posted" || order[1] != "frame" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestStepDelta(t *testing.T) {
	l := New()
	var deltas []time.Duration
	var cb Callback
	cb = func(tick Tick) {
		deltas = append(deltas, tick.Delta)
		l.RequestFrame(cb)
	}
	l.RequestFrame(cb)
	l.Step(10 * time.Millisecond)
	l.Step(30 * time.Millisecond)
	if deltas[0] != 0 || deltas[1] != 20*time.Millisecond {
		t.Fatalf("unexpected deltas: %v", deltas)
	}
	if l.Frame() != 2 {
		t.Fatalf("expected frame 2, got %d", l.Frame())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 100)
	var cb Callback
	cb = func(Tick) {
		select {
		case ticks <- struct{}{}:
		default:
		}
		l.RequestFrame(cb)
	}
	l.RequestFrame(cb)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, time.Millisecond) }()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAwaitRunsPostedTasksUntilDone(t *testing.T) {
	l := New()
	done := make(chan struct{})
	ran := 0
	go func() {
		l.Post(func() { ran++ })
		l.Post(func() {
			ran++
			close(done)
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Await(ctx, done); err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if ran != 2 {
		t.Fatalf("expected both posted tasks to run, got %d", ran)
	}
	if l.Frame() != 0 {
		t.Fatalf("Await must not advance frames, got %d", l.Frame())
	}
}

func TestAwaitHonoursContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Await(ctx, make(chan struct{})); err == nil {
		t.Fatal("expected context error")
	}
}
