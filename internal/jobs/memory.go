package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool is the in-process backend: a bounded queue drained by a fixed number
// of workers. Jobs still queued when the process exits are lost.
type Pool struct {
	router  *Router
	queue   chan Job
	log     *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type PoolConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

func NewPool(router *Router, cfg PoolConfig, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}

	p := &Pool{
		router:  router,
		queue:   make(chan Job, cfg.QueueSize),
		log:     log.With(slog.String("component", "jobs.memory")),
		timeout: cfg.JobTimeout,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) Enqueue(ctx context.Context, kind Kind, payload any) error {
	job, err := NewJob(kind, payload)
	if err != nil {
		return err
	}
	return p.Submit(ctx, job)
}

// Submit never blocks: a full queue rejects the job.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	for job := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.router.Run(ctx, job); err != nil {
			p.log.Error(
				"job failed",
				slog.Any("err", err),
				slog.Int("worker", n),
				slog.String("job_id", job.ID.String()),
				slog.String("kind", string(job.Kind)),
			)
		}
		cancel()
	}
}

// Close stops admission and waits for queued jobs until ctx expires.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.log.Warn("job pool drain timed out", slog.Int("pending", len(p.queue)))
		return ctx.Err()
	}
}
