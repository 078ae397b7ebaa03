package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Start launches the HTTP server and returns a channel that is closed once a
// shutdown signal arrives. The caller is expected to call Stop afterwards.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	go func() {
		slog.Info("vpn 2fa http server listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "address", a.httpServer.Addr, "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, shutdownSignals...)
		defer signal.Stop(sig)

		received := <-sig
		slog.Info("shutdown signal received", "signal", received.String())

		close(terminateChan)
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener. Used by tests that
// need an ephemeral port.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		errChan <- a.httpServer.Serve(l)
	}()

	return errChan
}

// ShutdownTimeout bounds Stop as configured by server.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	return a.config.GetSecond("server.shutdown_timeout_seconds")
}

// Stop drains in-flight requests first so their audit writes and events
// complete, then cancels background loops such as access-log retention,
// waits for the goroutine manager and finally runs the closers in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	slog.InfoContext(ctx, "waiting for background work to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background work finished with error", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
			continue
		}
		slog.DebugContext(ctx, "resource closed", "name", closer.name)
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
