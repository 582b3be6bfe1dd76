package grpc

import (
	"context"
	"io"
	"log"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

func TestHealthServer_ReportsServingState(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewHealthServer(log.New(io.Discard, "", 0))
	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(AgentService))

	s.SetServing(true)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.True(t, proto.Equal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, resp))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(AgentService))

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Error(t, err, "unregistered services are NOT_FOUND")

	s.Stop()
	assert.NoError(t, <-done)
}
