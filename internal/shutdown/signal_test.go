package shutdown

import (
	"testing"
	"time"
)

func TestSignal_Lifecycle(t *testing.T) {
	s := New()
	if s.State() != StateIdle {
		t.Fatalf("expected StateIdle, got %v", s.State())
	}
	s.Start()
	if s.State() != StateRunning {
		t.Fatalf("expected StateRunning, got %v", s.State())
	}
	if s.ShouldExit() {
		t.Fatal("expected ShouldExit false while running")
	}
	s.Complete()
	if s.State() != StateCompleted {
		t.Fatalf("expected StateCompleted, got %v", s.State())
	}
	if !s.ShouldExit() {
		t.Fatal("expected ShouldExit true once completed")
	}
}

func TestSignal_Fail(t *testing.T) {
	s := New()
	s.Start()
	s.Fail("boom")
	if s.State() != StateError {
		t.Fatalf("expected StateError, got %v", s.State())
	}
	if s.ErrMessage() != "boom" {
		t.Fatalf("expected error message 'boom', got %q", s.ErrMessage())
	}
}

// After RequestStop, a select racing Stopped() observes it promptly.
func TestSignalStopChannelClosesPromptly(t *testing.T) {
	s := New()
	s.Start()

	done := make(chan struct{})
	start := time.Now()
	go func() {
		<-s.Stopped()
		close(done)
	}()

	time.AfterFunc(5*time.Millisecond, s.RequestStop)

	select {
	case <-done:
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Fatalf("stop observed too slowly: %v", elapsed)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("stop channel never closed")
	}
	if s.State() != StateIdle {
		t.Fatalf("expected StateIdle after RequestStop, got %v", s.State())
	}
}

// A second Start after RequestStop gets a fresh stop channel, so the
// start→stop→start cycle driven over one shared Signal keeps working.
func TestSignal_RestartAfterRequestStop(t *testing.T) {
	s := New()

	s.Start()
	firstCh := s.Stopped()
	s.RequestStop()
	select {
	case <-firstCh:
	default:
		t.Fatal("first run's stop channel not closed after RequestStop")
	}

	s.Start()
	if s.State() != StateRunning {
		t.Fatalf("expected StateRunning after restart, got %v", s.State())
	}
	if s.ShouldExit() {
		t.Fatal("restarted signal reports ShouldExit immediately")
	}
	select {
	case <-s.Stopped():
		t.Fatal("restarted signal's stop channel is already closed")
	default:
	}

	s.RequestStop()
	select {
	case <-s.Stopped():
	default:
		t.Fatal("second run's stop channel not closed after RequestStop")
	}
}

func TestSignal_RequestStopIdempotent(t *testing.T) {
	s := New()
	s.Start()
	s.RequestStop()
	s.RequestStop() // must not panic on double-close
	if s.State() != StateIdle {
		t.Fatalf("expected StateIdle, got %v", s.State())
	}
}
