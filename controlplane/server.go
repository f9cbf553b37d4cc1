// Package controlplane exposes the pipeline's lifecycle over gRPC health
// checking, adapted from the teacher's api/grpcserver package (a thin
// grpc.NewServer wrapper) and toto1234567890-data-ingestor's
// src/grpc_control/grpc_service.go (listener lifecycle, per-service
// SetServingStatus toggling, graceful-stop-with-timeout), generalized from
// one order-matching service to one health entry per worker class this
// pipeline runs (encode, sequential, cross-sectional, io).
package controlplane

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Service names this control plane reports health for, one per pipeline
// phase (see pipeline.Orchestrator.RunDate's phase sequence).
const (
	ServiceEncode         = "lobrecon.encode"
	ServiceSequential     = "lobrecon.sequential"
	ServiceCrossSectional = "lobrecon.cross_sectional"
	ServiceIO             = "lobrecon.io"
)

// Server wraps a grpc.NewServer with a registered health.Server, toggled
// SERVING/NOT_SERVING as each pipeline phase starts and stops instead of
// a single binary up/down signal.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
}

func NewServer(host string, port int) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("controlplane: listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	for _, svc := range []string{ServiceEncode, ServiceSequential, ServiceCrossSectional, ServiceIO} {
		healthServer.SetServingStatus(svc, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	return &Server{grpcServer: grpcServer, health: healthServer, listener: listener}, nil
}

// Serve blocks until the underlying grpc.Server stops (via Stop or
// GracefulStop). Run it in its own goroutine.
func (s *Server) Serve() error {
	log.Printf("[controlplane] serving on %s", s.listener.Addr())
	if err := s.grpcServer.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// PhaseStarted/PhaseStopped flip one service's health status, so an
// external health check distinguishes "the process is up" from "the
// sequential phase is actually running right now."
func (s *Server) PhaseStarted(service string) {
	s.health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}

func (s *Server) PhaseStopped(service string) {
	s.health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Stop gracefully stops the server, forcing a hard stop if it does not
// finish within timeout.
func (s *Server) Stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-ctx.Done():
		log.Println("[controlplane] graceful stop timed out, forcing")
		s.grpcServer.Stop()
	case <-done:
	}
}
