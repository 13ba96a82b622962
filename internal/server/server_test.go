package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timecode/internal/config"
	"github.com/zsiec/timecode/internal/health"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, cfg *config.ServerConfig, rl *config.RateLimitConfig) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	if cfg == nil {
		cfg = &config.ServerConfig{HTTPPort: 8080}
	}
	return New(cfg, rl, testLogger(), client), mr
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestNew(t *testing.T) {
	cfg := &config.ServerConfig{HTTPPort: 8080}
	s, _ := newTestServer(t, cfg, &config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1})

	assert.Equal(t, cfg, s.config)
	assert.NotNil(t, s.router)
	assert.NotNil(t, s.healthMgr)
	assert.NotNil(t, s.errorHandler)
	assert.NotNil(t, s.limiter)

	plain := New(cfg, &config.RateLimitConfig{Enabled: false}, testLogger(), nil)
	assert.Nil(t, plain.limiter)
	assert.IsType(t, &mux.Router{}, plain.GetRouter())
}

func TestSetupRoutes_Health(t *testing.T) {
	s, mr := newTestServer(t, nil, nil)
	s.setupRoutes()

	rr := serve(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp health.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Checks, "redis")

	mr.SetError("LOADING")
	rr = serve(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/live").Code)
}

func TestSetupRoutes_RegisteredRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	s.RegisterRoutes(func(r *mux.Router) {
		r.HandleFunc("/api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}).Methods(http.MethodGet)
	})
	s.setupRoutes()

	assert.Equal(t, http.StatusTeapot, serve(s, http.MethodGet, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/v1/nothing").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPost, "/version").Code)
}

func TestRegisterHealthChecker(t *testing.T) {
	s := New(&config.ServerConfig{}, nil, testLogger(), nil)
	s.RegisterHealthChecker(health.NewCheckerFunc("timecode", func(context.Context) error { return nil }))
	s.setupRoutes()

	rr := serve(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"timecode"`)
}

func TestDebugEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &config.ServerConfig{HTTPPort: 8080}, nil)
	s.setupRoutes()
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/debug/info").Code)

	s, _ = newTestServer(t, &config.ServerConfig{HTTPPort: 8080, DebugEndpoints: true}, nil)
	s.setupRoutes()

	rr := serve(s, http.MethodGet, "/debug/info")
	require.Equal(t, http.StatusOK, rr.Code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, false, info["rate_limited"])
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestStartAndShutdown(t *testing.T) {
	port := freePort(t)
	s, _ := newTestServer(t, &config.ServerConfig{
		HTTPPort:        port,
		ShutdownTimeout: time.Second,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	url := "http://127.0.0.1:" + itoa(port) + "/live"
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStart_HTTP3MissingCertificates(t *testing.T) {
	s, _ := newTestServer(t, &config.ServerConfig{
		HTTPPort:    freePort(t),
		EnableHTTP3: true,
		HTTP3Port:   freePort(t),
		TLSCertFile: "missing-cert.pem",
		TLSKeyFile:  "missing-key.pem",
	}, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS certificates")
}

func TestShutdown_NotStarted(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	assert.NoError(t, s.Shutdown())
}
