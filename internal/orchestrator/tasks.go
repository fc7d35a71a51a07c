package orchestrator

import (
	"context"
	"log/slog"
	"sync"
)

// Tasks runs fire-and-forget background work for call processing.
//
// Delivery is at most once: a task that fails or panics is logged and NOT
// retried, and tasks submitted while the queue is full are dropped. Webhook
// redelivery from the providers is the recovery path, not this runner.
type Tasks struct {
	queue chan task
	log   *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

type task struct {
	name string
	fn   func(ctx context.Context) error
}

func NewTasks(workers, queueSize int, log *slog.Logger) *Tasks {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tasks{
		queue:   make(chan task, queueSize),
		log:     log,
		baseCtx: ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// Submit enqueues fn. Returns false when the queue is full or the runner is
// closed; the caller must treat that as "work will not happen".
func (t *Tasks) Submit(name string, fn func(ctx context.Context) error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.log.Warn("task rejected, runner closed", "task", name)
		return false
	}
	select {
	case t.queue <- task{name: name, fn: fn}:
		return true
	default:
		t.log.Warn("task dropped, queue full", "task", name)
		return false
	}
}

func (t *Tasks) worker() {
	defer t.wg.Done()
	for tk := range t.queue {
		t.run(tk)
	}
}

func (t *Tasks) run(tk task) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("task panicked", "task", tk.name, "recovered", r)
		}
	}()
	if err := tk.fn(t.baseCtx); err != nil {
		t.log.Error("task failed", "task", tk.name, "err", err)
	}
}

// Close stops accepting new tasks and waits for queued ones to drain.
func (t *Tasks) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	t.wg.Wait()
	t.cancel()
}
