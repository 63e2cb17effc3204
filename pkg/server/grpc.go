package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/codelf/pkg/service"
)

// GRPCServer hosts the variable service with health checking and
// reflection.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	logger *logrus.Logger
	port   int
}

// NewGRPCServer creates the gRPC server and registers svc on it.
func NewGRPCServer(svc service.VariableServiceServer, logger *logrus.Logger, port int) *GRPCServer {
	if logger == nil {
		logger = logrus.New()
	}

	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		// Clients ping every 30s.
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}

	s := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service.VariableServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	service.RegisterVariableServiceServer(s, svc)

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	return &GRPCServer{
		server: s,
		health: healthServer,
		logger: logger,
		port:   port,
	}
}

// Start listens on the configured port and serves until Stop.
func (g *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", g.port, err)
	}
	return g.Serve(lis)
}

// Serve serves on lis until Stop.
func (g *GRPCServer) Serve(lis net.Listener) error {
	g.logger.WithFields(logrus.Fields{
		"addr": lis.Addr().String(),
	}).Info("gRPC server listening")

	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop marks the server NOT_SERVING and stops it gracefully, forcing the
// stop once ctx is done.
func (g *GRPCServer) Stop(ctx context.Context) {
	g.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	g.health.SetServingStatus(service.VariableServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		g.logger.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		g.logger.Warn("Graceful shutdown timeout, forcing stop...")
		g.server.Stop()
	}
}
