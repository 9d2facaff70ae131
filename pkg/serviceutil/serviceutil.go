package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled on the first SIGINT or SIGTERM. A second
// signal exits immediately, for a crawl stuck in a browser action.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-signals:
			slog.Warn("stopping, interrupt again to exit now", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(signals)
			return
		}
		select {
		case sig := <-signals:
			slog.Error("stopping now", "signal", sig.String())
			os.Exit(130)
		case <-parent.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(signals)
		cancel()
	}
}

// Fatal logs the error and exits with status 1.
func Fatal(message string, err error) {
	if err == nil {
		slog.Error(message)
	} else {
		slog.Error(message, "err", err.Error())
	}
	os.Exit(1)
}
