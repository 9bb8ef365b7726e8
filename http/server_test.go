package http

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
)

func TestServerStartStop(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv := NewServer(cfg, Deps{Predictor: testModel})
	require.NoError(t, srv.Listen())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, <-errCh)
}

func TestServerListenConflict(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	first := NewServer(cfg, Deps{Predictor: testModel})
	require.NoError(t, first.Listen())
	defer first.listener.Close()

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	second := NewServer(cfg, Deps{Predictor: testModel})
	assert.Error(t, second.Listen())
}

func TestServerConfigAddr(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())

	cfg.Host = "::1"
	cfg.Port = 9000
	assert.Equal(t, "[::1]:9000", cfg.Addr())
	assert.Equal(t, "[::1]:9000", NewServer(cfg, Deps{Predictor: testModel}).Addr())
}
