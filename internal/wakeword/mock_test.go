package wakeword

import (
	"context"
	"testing"
	"time"
)

func TestMockDetectorFiresOnWake(t *testing.T) {
	m := NewMockDetector()
	frames := make(chan []int16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Start(ctx, frames, nil)

	fired := make(chan struct{}, 1)
	m2 := NewMockDetector()
	go m2.Start(ctx, frames, func() { fired <- struct{}{} })

	time.Sleep(10 * time.Millisecond)
	m2.Fire()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected onWake to fire")
	}
}

func TestMockDetectorPauseSuppressesFire(t *testing.T) {
	m := NewMockDetector()
	frames := make(chan []int16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := false
	go m.Start(ctx, frames, func() { fired = true })
	time.Sleep(10 * time.Millisecond)

	m.Pause()
	m.Fire()
	time.Sleep(10 * time.Millisecond)
	if fired {
		t.Fatal("expected no fire while paused")
	}

	m.Resume()
	m.Fire()
	time.Sleep(10 * time.Millisecond)
	if !fired {
		t.Fatal("expected fire after resume")
	}
}
