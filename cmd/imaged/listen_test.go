package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return port
}

func TestListenWithFallback_FreePort(t *testing.T) {
	port := freePort(t)

	lis, err := listenWithFallback(context.Background(), port, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer lis.Close()

	assert.Equal(t, port, lis.Addr().(*net.TCPAddr).Port)
}

func TestListenWithFallback_PortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	lis, err := listenWithFallback(context.Background(), port, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Skipf("no free port after %d: %v", port, err)
	}
	defer lis.Close()

	got := lis.Addr().(*net.TCPAddr).Port
	assert.Greater(t, got, port)
	assert.LessOrEqual(t, got, port+listenAttempts-1)
}

func TestListenWithFallback_CanceledContext(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = listenWithFallback(ctx, busy.Addr().(*net.TCPAddr).Port, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, context.Canceled)
}
