package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "gobarber.Backend"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health mirrors database reachability into the standard gRPC health service.
type Health struct {
	srv *health.Server
	db  Pinger
	log *slog.Logger
}

func NewHealth(db Pinger, log *slog.Logger) *Health {
	if log == nil {
		log = slog.Default()
	}
	h := &Health{
		srv: health.NewServer(),
		db:  db,
		log: log.With(slog.String("component", "grpc.health")),
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

// Check pings the database once and publishes the result.
func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("database ping failed", slog.Any("err", err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.set(status)
	return status
}

// Run re-checks every interval until ctx is done, then reports NOT_SERVING
// to every watcher.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h.Check(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

func NewServer(requestTimeout time.Duration, h *Health) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(RequestTimeoutInterceptor(requestTimeout)),
	)
	healthpb.RegisterHealthServer(s, h.srv)
	return s
}

func RequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}
