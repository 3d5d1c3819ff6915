package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/imagerisk/imagerisk/internal/infrastructure/config"
)

const (
	listenAttempts   = 10
	listenRetryDelay = 200 * time.Millisecond
)

// listenWithFallback listens on port, moving to the next port while the
// current one is in use. Other listen errors are returned immediately.
func listenWithFallback(ctx context.Context, port int, logger *slog.Logger) (net.Listener, error) {
	var lastErr error
	for attempt := 0; attempt < listenAttempts; attempt++ {
		addr := config.HTTPAddress(port + attempt)
		lis, err := net.Listen("tcp", addr)
		if err == nil {
			if attempt > 0 {
				logger.Warn("HTTP port in use, using fallback port",
					"requested", port, "port", port+attempt)
			}
			return lis, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		lastErr = err
		logger.Warn("HTTP port in use", "port", port+attempt, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(listenRetryDelay):
		}
	}
	return nil, fmt.Errorf("no free HTTP port after %d attempts from %d: %w", listenAttempts, port, lastErr)
}
