package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AmirHosein-Gharaati/learnstreamapi/cmd/api/di"
	grpcadapter "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/config"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{Env: "test"}
	cfg.App.GRPCPort = "50051"
	cfg.App.HTTPPort = "8080"
	cfg.App.ShutdownTimeoutSeconds = 5
	cfg.App.StorageDriver = config.StorageMemory
	cfg.App.SeedOnStart = true
	cfg.Logger.ServiceName = "learnstreamapi-test"

	log := zaptest.NewLogger(t)
	c, err := di.NewContainer(context.Background(), cfg, log)
	require.NoError(t, err)

	// Bind ephemeral ports
	cfg.App.GRPCPort = "0"
	cfg.App.HTTPPort = "0"

	s := New(cfg, log, c)
	require.NoError(t, s.Listen())
	return s
}

func loopback(addr net.Addr) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(addr.(*net.TCPAddr).Port))
}

func TestServer_ServesBothTransports(t *testing.T) {
	s := startTestServer(t)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve()
	}()

	resp, err := http.Get("http://" + loopback(s.HTTPAddr()) + "/v1/users/ids/duplicated")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		IDs []int64 `json:"ids"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []int64{2, 5}, body.IDs)

	conn, err := grpc.NewClient(loopback(s.GRPCAddr()), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), grpcadapter.FullMethod("FullNames"), &structpb.Struct{}, out)
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["names"].GetListValue().GetValues(), 6)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not stop")
	}
}

func TestServer_ListenPortInUse(t *testing.T) {
	s := startTestServer(t)
	defer func() {
		_ = s.grpcLis.Close()
		_ = s.ginLis.Close()
	}()

	other := &Server{Config: &config.Config{}, Gin: &http.Server{Addr: s.HTTPAddr().String()}}
	other.Config.App.GRPCPort = "0"

	err := other.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen for HTTP")
}

func TestServer_FailedTransportStopsTheOther(t *testing.T) {
	s := startTestServer(t)
	httpAddr := loopback(s.HTTPAddr())
	require.NoError(t, s.grpcLis.Close())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve()
	}()

	select {
	case err := <-serveErr:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gRPC server")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept running after the gRPC listener failed")
	}

	client := &http.Client{Timeout: time.Second}
	_, err := client.Get("http://" + httpAddr + "/health")
	assert.Error(t, err)
}
