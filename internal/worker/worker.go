package worker

import (
	"context"
	"sync"
	"time"

	"memchat/internal/logger"
)

// Task is a named unit of background work. The context is cancelled when the
// pool shuts down.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs tasks on a fixed set of goroutines. Work that outlives a request,
// such as memory writes, is enqueued here so the response path never waits
// on it. Failures are logged, never retried.
type Pool struct {
	tasks       chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	taskTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewPool starts workerCount goroutines draining a queue of queueSize tasks.
func NewPool(workerCount, queueSize int, taskTimeout time.Duration) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:       make(chan Task, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		taskTimeout: taskTimeout,
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.execute(task)
	}
}

func (p *Pool) execute(task Task) {
	ctx, cancel := context.WithTimeout(p.ctx, p.taskTimeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		logger.Log.WithError(err).WithField("task", task.Name).Error("Background task failed")
		return
	}
	logger.Log.WithField("task", task.Name).Debug("Background task completed")
}

// Enqueue submits a task to the pool. When the queue is full, or the pool
// has shut down, the task is dropped with a log entry rather than blocking
// the caller.
func (p *Pool) Enqueue(name string, run func(ctx context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		logger.Log.WithField("task", name).Warn("Background pool shut down, dropping task")
		return
	}

	select {
	case p.tasks <- Task{Name: name, Run: run}:
	default:
		logger.Log.WithField("task", name).Warn("Background queue full, dropping task")
	}
}

// Shutdown stops accepting work, drains queued tasks, and waits for the
// workers to exit.
func (p *Pool) Shutdown() {
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
}
