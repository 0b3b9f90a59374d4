// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Errorf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(time.Minute)
	if got := c.Now(); !got.Equal(epoch.Add(time.Minute)) {
		t.Errorf("Now() after Advance = %v, want %v", got, epoch.Add(time.Minute))
	}
}

func TestFakeAfter(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(10 * time.Second)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(10 * time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(epoch.Add(10 * time.Second)) {
			t.Errorf("fire time = %v, want %v", fired, epoch.Add(10*time.Second))
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeTicker(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	c.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	// Spanning several intervals fires per interval, but the buffer
	// holds one tick: drain one, the rest are dropped.
	c.Advance(3 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after later intervals")
	}
	select {
	case <-ticker.C:
		t.Fatal("overflow ticks should be dropped, not queued")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()

	c.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
	if got := c.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d, want 0 after Stop", got)
	}
}

func TestFakeSleepWakesOnAdvance(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})

	go func() {
		c.Sleep(time.Minute)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not wake after Advance")
	}
}

func TestWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	go c.After(time.Second)
	go c.After(2 * time.Second)

	c.WaitForTimers(2)
	if got := c.PendingCount(); got != 2 {
		t.Errorf("PendingCount() = %d, want 2", got)
	}
}

func TestNewTickerPanicsOnNonPositive(t *testing.T) {
	c := Fake(epoch)
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewTicker(0) should panic")
		}
	}()
	c.NewTicker(0)
}
