package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	apperrors "studywarden/internal/platform/errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// NewServer returns a gRPC server whose handlers may return coded errors;
// the interceptors translate them to statuses and log each call.
func NewServer(logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rpc")
	return grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryInterceptor(logger)),
		grpc.ChainStreamInterceptor(streamInterceptor(logger)),
	)
}

func unaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, info.FullMethod, started, err)
		return resp, ToStatus(err)
	}
}

func streamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		started := time.Now()
		err := handler(srv, stream)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		logCall(logger, info.FullMethod, started, err)
		return ToStatus(err)
	}
}

func logCall(logger *zap.Logger, method string, started time.Time, err error) {
	fields := []zap.Field{zap.String("method", method), zap.Duration("elapsed", time.Since(started))}
	if err == nil {
		logger.Debug("rpc", fields...)
		return
	}
	fields = append(fields, zap.String("code", string(apperrors.CodeOf(err))), zap.Error(err))
	if apperrors.CodeOf(err) == apperrors.CodeInternal || apperrors.CodeOf(err) == apperrors.CodePersistenceFailure {
		logger.Error("rpc failed", fields...)
		return
	}
	logger.Info("rpc rejected", fields...)
}

// DefaultStopGrace bounds how long a stopping server waits for open calls.
const DefaultStopGrace = 10 * time.Second

// Serve runs server on addr until ctx is done.
func Serve(ctx context.Context, server *grpc.Server, addr string, grace time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeListener(ctx, server, listener, grace)
}

// ServeListener runs server on listener until ctx is done, then stops it
// gracefully. Calls still open after grace are cancelled.
func ServeListener(ctx context.Context, server *grpc.Server, listener net.Listener, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(listener) }()
	select {
	case <-ctx.Done():
		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-stopped:
		case <-timer.C:
			server.Stop()
			<-stopped
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
