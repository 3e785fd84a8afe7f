package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func servingStatus(t *testing.T, s *HealthServer) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.Status
}

func TestHealthServerRefresh(t *testing.T) {
	var checkErr error
	s := NewHealthServer(func(context.Context) error { return checkErr }, nil)
	defer s.Stop()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s))

	checkErr = errors.New("database is down")
	s.refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s))

	checkErr = nil
	s.refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s))
}

func TestHealthServerWatchWithoutChecker(t *testing.T) {
	s := NewHealthServer(nil, nil)
	defer s.Stop()

	done := make(chan struct{})
	go func() {
		s.Watch(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch should return immediately without a checker")
	}
}

func TestHealthServerServe(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	s := NewHealthServer(func(context.Context) error { return nil }, nil)
	go func() { _ = s.Serve(lis) }()
	defer s.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
