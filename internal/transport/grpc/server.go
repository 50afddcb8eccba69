// Package grpcx exposes the standard gRPC health service for the bot.
package grpcx

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName — имя в health-протоколе помимо общего "".
const ServiceName = "mrdcc.Bot"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
}

func NewServer() *Server {
	gs := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{GRPC: gs, Health: hs}
}

func (s *Server) set(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", st)
	s.Health.SetServingStatus(ServiceName, st)
}

// Watch проверяет хранилище каждые every и публикует статус, пока ctx жив.
func (s *Server) Watch(ctx context.Context, p Pinger, every time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, every)
		defer cancel()
		err := p.Ping(pctx)
		if err != nil {
			slog.Warn("health check failed", "err", err)
		}
		s.set(err == nil)
	}

	check()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Health.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}
