package transport

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"orrery/backend/internal/catalog"
	"orrery/backend/internal/game"
	"orrery/backend/internal/world"
)

func newHealthScene(t *testing.T) *world.Scene {
	t.Helper()
	k := catalog.Constants{MeanDistance: 1, RotationPeriod: 1, OrbitalPeriod: 1, Diameter: 1}
	scene, err := world.Build([]catalog.Record{
		{Name: "Sun", Texture: "sun.png", Diameter: 4},
	}, k, world.DefaultSceneConfig())
	require.NoError(t, err)
	return scene
}

func startHealth(t *testing.T, holder *game.SceneHolder) (*HealthServer, healthpb.HealthClient) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := NewHealthServer(holder, log.New(io.Discard, "", 0))
	go h.Serve(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		h.Stop()
	})
	return h, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServer_ServingWithScene(t *testing.T) {
	_, client := startHealth(t, game.NewSceneHolder(newHealthScene(t)))

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, SceneService))
}

func TestHealthServer_FollowsHolder(t *testing.T) {
	holder := game.NewSceneHolder(nil)
	h, client := startHealth(t, holder)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SceneService))

	holder.Replace(newHealthScene(t))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Refresh())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, SceneService))
}

func TestHealthServer_RunRefreshesPeriodically(t *testing.T) {
	holder := game.NewSceneHolder(nil)
	h, client := startHealth(t, holder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, 10*time.Millisecond)

	holder.Replace(newHealthScene(t))
	assert.Eventually(t, func() bool {
		return check(t, client, "") == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)
}
