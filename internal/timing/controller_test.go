package timing

import (
	"testing"
	"time"

	"github.com/banshee-data/udpgen/internal/timeutil"
)

func TestControllerFirstCallReturnsImmediately(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	c := New(clock, 0)

	start := time.Now()
	c.Wait(time.Unix(5000, 0), nil)
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("first Wait() call should return immediately")
	}
}

func TestControllerSuspendsProportionally(t *testing.T) {
	base := time.Unix(1000, 0)
	clock := timeutil.NewMockClock(base)
	c := New(clock, 0)

	c.Wait(base, nil) // establishes origin

	stopCh := make(chan struct{})
	waitDone := make(chan struct{})
	go func() {
		c.Wait(base.Add(200*time.Millisecond), stopCh)
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("Wait() returned before the scaled delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(200 * time.Millisecond)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after the clock advanced past target")
	}
}

func TestControllerStopChCancelsWaitEarly(t *testing.T) {
	base := time.Unix(1000, 0)
	clock := timeutil.NewMockClock(base)
	c := New(clock, 0)

	c.Wait(base, nil)

	stopCh := make(chan struct{})
	waitDone := make(chan struct{})
	go func() {
		c.Wait(base.Add(10*time.Second), stopCh)
		close(waitDone)
	}()

	close(stopCh)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return promptly after stopCh closed")
	}
}

func TestControllerMaxDelayThresholdSkipsWait(t *testing.T) {
	base := time.Unix(1000, 0)
	clock := timeutil.NewMockClock(base)
	c := New(clock, 50*time.Millisecond)

	c.Wait(base, nil)

	start := time.Now()
	c.Wait(base.Add(time.Second), nil)
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("Wait() should skip sleeping once delay exceeds the threshold")
	}
}

func TestControllerNegativeOffsetClampsToZero(t *testing.T) {
	base := time.Unix(1000, 0)
	clock := timeutil.NewMockClock(base)
	c := New(clock, 0)

	c.Wait(base, nil)

	start := time.Now()
	c.Wait(base.Add(-time.Second), nil)
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("Wait() with an out-of-order timestamp should not block")
	}
}
