// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()

	server := NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec,noctx // test-local address
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	server := startServer(t, nil)

	code, body := get(t, fmt.Sprintf("http://%s/healthz", server.Addr()))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		server := startServer(t, func() bool { return true })

		code, body := get(t, fmt.Sprintf("http://%s/readyz", server.Addr()))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body)
	})

	t.Run("not ready", func(t *testing.T) {
		server := startServer(t, func() bool { return false })

		code, body := get(t, fmt.Sprintf("http://%s/readyz", server.Addr()))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not ready", body)
	})

	t.Run("nil checker defaults to ready", func(t *testing.T) {
		server := startServer(t, nil)

		code, _ := get(t, fmt.Sprintf("http://%s/readyz", server.Addr()))
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	server := startServer(t, nil)

	server.Metrics().LoginsTotal.WithLabelValues("success").Inc()
	server.Metrics().RegistrationsTotal.Inc()

	code, body := get(t, fmt.Sprintf("http://%s/metrics", server.Addr()))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `quantumix_logins_total{outcome="success"} 1`)
	assert.Contains(t, body, "quantumix_registrations_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestStopIsIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	_, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))
}
