package grpcx

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type flakyStore struct{ down atomic.Bool }

func (f *flakyStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("database is closed")
	}
	return nil
}

func TestHealth_FollowsStore(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer()
	go func() { _ = srv.GRPC.Serve(lis) }()
	defer srv.GRPC.Stop()

	store := &flakyStore{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Watch(ctx, store, 10*time.Millisecond)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	current := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	require.Eventually(t, func() bool {
		return current() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 5*time.Millisecond)

	store.down.Store(true)
	require.Eventually(t, func() bool {
		return current() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 5*time.Millisecond)
}

func TestUnaryInterceptor_RecoversPanic(t *testing.T) {
	icpt := UnaryServerInterceptor()
	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(ctx context.Context, _ any) (any, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "deadline guard")
			panic("boom")
		})
	assert.Equal(t, codes.Internal, status.Code(err))
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s ctxStream) Context() context.Context { return s.ctx }

func TestStreamInterceptor_RecoversPanicWithoutDeadline(t *testing.T) {
	icpt := StreamServerInterceptor()
	err := icpt(nil, ctxStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/x/Watch"},
		func(_ any, ss grpc.ServerStream) error {
			_, ok := ss.Context().Deadline()
			assert.False(t, ok, "streams run without a deadline")
			panic("boom")
		})
	assert.Equal(t, codes.Internal, status.Code(err))

	err = icpt(nil, ctxStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/x/Watch"},
		func(any, grpc.ServerStream) error { return status.Error(codes.NotFound, "nope") })
	assert.Equal(t, codes.NotFound, status.Code(err))
}
