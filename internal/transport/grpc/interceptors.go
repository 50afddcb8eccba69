package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

// unaryTimeout — потолок для вызовов без deadline. Check у health быстрый.
const unaryTimeout = 5 * time.Second

// finish ловит панику обработчика и пишет одну строку лога на вызов.
// Вызывается через defer, err — именованный результат перехватчика.
func finish(ctx context.Context, kind, method string, start time.Time, err *error) {
	log := logger.FromCtx(ctx).With(slog.String("method", method))
	if r := recover(); r != nil {
		log.Error("grpc "+kind+" panic",
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
		*err = status.Error(codes.Internal, "internal server error")
	}

	attrs := []any{
		slog.String("code", status.Code(*err).String()),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
	}
	if *err != nil {
		log.Warn("grpc "+kind, append(attrs, slog.Any("err", *err))...)
		return
	}
	log.Debug("grpc "+kind, attrs...)
}

func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, unaryTimeout)
			defer cancel()
		}
		defer finish(ctx, "unary", info.FullMethod, time.Now(), &err)
		return handler(ctx, req)
	}
}

// Stream — health Watch держит поток открытым, поэтому без таймаута.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer finish(ss.Context(), "stream", info.FullMethod, time.Now(), &err)
		return handler(srv, ss)
	}
}
