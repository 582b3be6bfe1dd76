package grpc

import (
	"errors"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AgentService is the service name reported next to the overall ("") status.
const AgentService = "daomerge.Agent"

// HealthServer exposes grpc.health.v1 for the agent
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *log.Logger
}

// NewHealthServer creates a HealthServer reporting NOT_SERVING until SetServing(true).
func NewHealthServer(l *log.Logger) *HealthServer {
	s := &HealthServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		logger: l,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.SetServing(false)
	return s
}

// SetServing updates the reported status of the agent.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(AgentService, status)
}

// Serve blocks serving lis until Stop is called.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Printf("gRPC health server listening on %s", lis.Addr())
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	s.logger.Println("gRPC health server stopped listening.")
	return nil
}

// Stop reports NOT_SERVING to watchers and stops the server gracefully.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
