package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/aerovue/photomatch/internal/logger"
)

// ErrQueueFull is returned by Submit when the task queue has no free slot.
// Callers decide whether to retry, shed, or surface the rejection.
var ErrQueueFull = errors.New("worker: task queue is full")

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("worker: pool is closed")

// Task is a unit of work executed by a pool worker. The context passed in
// is the pool's run context and is canceled when the pool shuts down.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of goroutines fed from a bounded
// queue. Submission never blocks: a full queue rejects immediately.
type Pool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	cancel context.CancelFunc
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts count workers with a queue holding up to depth pending
// tasks. Both values are clamped to at least 1.
func NewPool(count, depth int, log *logger.Logger) *Pool {
	if count < 1 {
		count = 1
	}
	if depth < 1 {
		depth = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan Task, depth),
		cancel: cancel,
		log:    log,
	}

	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	log.Info("Worker pool started", map[string]interface{}{
		"workers":     count,
		"queue_depth": depth,
	})

	return p
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("Worker recovered from panic", nil, map[string]interface{}{
						"worker": id,
						"panic":  r,
					})
				}
			}()
			task(ctx)
		}()
	}
}

// Submit enqueues a task for execution. It returns ErrQueueFull without
// blocking when the queue is at capacity, and ErrPoolClosed after Close.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting new tasks, waits for queued tasks to drain, then
// cancels the run context handed to tasks. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.log.Info("Worker pool stopped", nil)
}
