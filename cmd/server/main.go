package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliamunaev/order-session-server/internal/app"
	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/config"
	"github.com/iliamunaev/order-session-server/internal/obs"
	"github.com/iliamunaev/order-session-server/internal/service/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), os.Stdout, os.Stderr); err != nil {
		slog.Error("server_failed", "kind", apperr.Kind(err), "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves one session population and prints the sales report to stdout.
// Logs go to stderr so the report stays machine-readable.
// Only startup failures (config, listener, catalog) and a drain that
// overruns SHUTDOWN_TIMEOUT are returned as errors.
func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := obs.InitLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}
	defer ln.Close()

	a, err := app.New(cfg, ln, log)
	if err != nil {
		return err
	}

	adminCtx, cancelAdmin := context.WithCancel(context.Background())
	defer cancelAdmin()
	adminDone := make(chan error, 1)
	if cfg.AdminAddr != "" {
		aln, err := net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			return fmt.Errorf("listen admin %s: %w", cfg.AdminAddr, err)
		}
		go func() { adminDone <- a.ServeAdmin(adminCtx, aln) }()
	} else {
		adminDone <- nil
	}

	if _, err := a.Run(ctx, stdout); err != nil {
		return err
	}

	if cfg.AdminAddr != "" && cfg.ReportLinger > 0 {
		log.Info("report_linger", "duration", cfg.ReportLinger)
		_ = shared.SleepOrDone(ctx, cfg.ReportLinger)
	}

	cancelAdmin()
	if err := <-adminDone; err != nil {
		log.Warn("admin_stopped", "error", err)
	}
	log.Info("server_stopped")
	return nil
}
