// Package server runs the HTTP server, the optional gRPC health port and the
// reminder scheduler until the context is cancelled.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/webdiner/webdiner/config"
	"github.com/webdiner/webdiner/internal/kernel"
	"github.com/webdiner/webdiner/pkg/grpcserver"
	"github.com/webdiner/webdiner/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Start boots the kernel and serves until ctx is done.
func Start(ctx context.Context) error {
	k, err := kernel.Boot(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := k.Close(); err != nil {
			logger.Warn("server: close", "error", err)
		}
	}()

	sched, err := k.Scheduler()
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Wait()

	if port := config.GRPCPort(); port != "" {
		g, err := grpcserver.Start(port, k.Probe)
		if err != nil {
			return err
		}
		defer g.Stop()
		logger.Info("grpc: listening", "addr", g.Addr().String())
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("http: listening", "addr", srv.Addr, "env", config.AppEnv())
	return Serve(ctx, srv)
}

// Serve runs srv until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.Info("http: shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
