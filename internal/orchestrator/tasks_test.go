package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTasks_RunsSubmittedWork(t *testing.T) {
	tasks := NewTasks(2, 8, nil)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if !tasks.Submit("work", func(context.Context) error {
			ran.Add(1)
			return nil
		}) {
			t.Fatalf("expected submit to succeed")
		}
	}
	tasks.Close()

	if got := ran.Load(); got != 5 {
		t.Fatalf("expected 5 tasks run, got %d", got)
	}
}

func TestTasks_CloseDrainsQueue(t *testing.T) {
	tasks := NewTasks(1, 16, nil)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		tasks.Submit("slow", func(context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		})
	}
	tasks.Close()

	if got := ran.Load(); got != 10 {
		t.Fatalf("expected queued tasks to drain on close, got %d", got)
	}
}

func TestTasks_RejectsAfterClose(t *testing.T) {
	tasks := NewTasks(1, 1, nil)
	tasks.Close()

	if tasks.Submit("late", func(context.Context) error { return nil }) {
		t.Fatalf("expected submit after close to fail")
	}
}

func TestTasks_DropsWhenQueueFull(t *testing.T) {
	tasks := NewTasks(1, 1, nil)
	defer tasks.Close()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	tasks.Submit("blocker", func(context.Context) error {
		defer wg.Done()
		<-release
		return nil
	})

	// Give the worker time to pick up the blocker so the queue slot is free.
	time.Sleep(10 * time.Millisecond)
	if !tasks.Submit("queued", func(context.Context) error { return nil }) {
		t.Fatalf("expected one queued task to fit")
	}

	dropped := false
	for i := 0; i < 5; i++ {
		if !tasks.Submit("overflow", func(context.Context) error { return nil }) {
			dropped = true
			break
		}
	}
	close(release)
	wg.Wait()

	if !dropped {
		t.Fatalf("expected overflow submits to be dropped")
	}
}

func TestTasks_SurvivesPanicsAndErrors(t *testing.T) {
	tasks := NewTasks(1, 8, nil)

	var ran atomic.Int32
	tasks.Submit("panics", func(context.Context) error { panic("boom") })
	tasks.Submit("errors", func(context.Context) error { return errors.New("nope") })
	tasks.Submit("after", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	tasks.Close()

	if ran.Load() != 1 {
		t.Fatalf("expected worker to survive panic and error")
	}
}
