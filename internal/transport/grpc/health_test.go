package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct {
	down atomic.Bool
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func dialHealth(t *testing.T, h *Health) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 16)
	srv := NewServer(time.Second, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealth_FollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	h := NewHealth(db, nil)
	client := dialHealth(t, h)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v, want NOT_SERVING", resp.GetStatus())
	}

	if got := h.Check(ctx); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Check = %v, want SERVING", got)
	}
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.GetStatus())
	}

	db.down.Store(true)
	if got := h.Check(ctx); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("Check = %v, want NOT_SERVING", got)
	}
}

func TestHealth_RunStopsWithContext(t *testing.T) {
	h := NewHealth(&fakePinger{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestRequestTimeoutInterceptor(t *testing.T) {
	interceptor := RequestTimeoutInterceptor(50 * time.Millisecond)

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("expected a deadline")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()
	_, _ = interceptor(parent, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		if got, _ := ctx.Deadline(); !got.Equal(want) {
			t.Fatalf("deadline overridden: %v, want %v", got, want)
		}
		return nil, nil
	})
}
