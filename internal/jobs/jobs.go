// Package jobs runs side effects out of band from the request that caused
// them. Delivery is at-least-once; handlers must tolerate repeats.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Kind string

var (
	ErrQueueFull   = errors.New("job queue full")
	ErrClosed      = errors.New("dispatcher closed")
	ErrUnknownKind = errors.New("unknown job kind")
)

type Job struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func NewJob(kind Kind, payload any) (Job, error) {
	if kind == "" {
		return Job{}, errors.New("job kind is required")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Job{}, err
	}
	return Job{ID: id, Kind: kind, Payload: b, EnqueuedAt: time.Now().UTC()}, nil
}

// Dispatcher admits a job without waiting for it to run.
type Dispatcher interface {
	Enqueue(ctx context.Context, kind Kind, payload any) error
}

type Handler func(ctx context.Context, job Job) error

// Router dispatches jobs to the handler registered for their kind.
type Router struct {
	handlers map[Kind]Handler
	log      *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		handlers: make(map[Kind]Handler),
		log:      log.With(slog.String("component", "jobs.router")),
	}
}

func (r *Router) Handle(kind Kind, h Handler) {
	r.handlers[kind] = h
}

func (r *Router) Kinds() []Kind {
	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}

// Run executes the handler for job, converting panics into errors.
func (r *Router) Run(ctx context.Context, job Job) (err error) {
	h, ok := r.handlers[job.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Kind, p)
		}
	}()

	start := time.Now()
	err = h(ctx, job)
	r.log.Debug(
		"job handled",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(job.Kind)),
		slog.Duration("took", time.Since(start)),
		slog.Bool("ok", err == nil),
	)
	return err
}
