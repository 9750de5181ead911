package media

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool runs background media fetches with bounded concurrency and
// a bounded queue. When the queue is full the task is dropped and
// logged; the message already exists without media, so the drop costs a
// missing attachment, not a lost message.
type WorkerPool struct {
	logger  *slog.Logger
	tasks   chan task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped sync.Once
}

type task struct {
	name string
	run  func(ctx context.Context) error
}

// NewWorkerPool creates a pool of the given size with a bounded queue.
func NewWorkerPool(log *slog.Logger, workers, queueSize int) *WorkerPool {
	if log == nil {
		log = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		logger: log.With(slog.String("service", "media_workers")),
		tasks:  make(chan task, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues a background task. Returns false when the queue is full
// or the pool is shutting down.
func (p *WorkerPool) Submit(name string, run func(ctx context.Context) error) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}
	select {
	case p.tasks <- task{name: name, run: run}:
		return true
	default:
		p.logger.Warn("background task dropped, queue full", slog.String("task", name))
		return false
	}
}

// Shutdown stops accepting tasks, cancels in-flight work, and waits for
// workers to exit. The task channel is never closed: a concurrent Submit
// may still be racing the cancellation, and sending on a closed channel
// panics. Queued tasks that lose the race are dropped, same as an
// overflowing queue.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.stopped.Do(p.cancel)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t := <-p.tasks:
			if err := t.run(p.ctx); err != nil {
				p.logger.Warn("background task failed",
					slog.String("task", t.name),
					slog.String("error", err.Error()))
			}
		}
	}
}
