package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/interview-matrix/internal/workflow"
)

// New builds a gRPC server with MatrixService, the health service and reflection registered.
func New(svc *workflow.Service, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogging(logger)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Reflection for grpcurl
	reflection.Register(grpcServer)

	RegisterMatrixServiceServer(grpcServer, NewMatrixService(svc, logger))
	return grpcServer, hs
}

// Serve listens on addr until ctx is done, then stops gracefully.
func Serve(ctx context.Context, addr string, svc *workflow.Service, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	grpcServer, hs := New(svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC serving", "addr", lis.Addr().String())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
		hs.Shutdown()
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
