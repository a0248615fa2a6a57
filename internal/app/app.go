// Package app wires the ledger, the session runner and the servers for
// one run, and sequences the report after the session population drains.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/catalog"
	"github.com/iliamunaev/order-session-server/internal/config"
	"github.com/iliamunaev/order-session-server/internal/ledger"
	"github.com/iliamunaev/order-session-server/internal/model"
	"github.com/iliamunaev/order-session-server/internal/report"
	"github.com/iliamunaev/order-session-server/internal/server"
	"github.com/iliamunaev/order-session-server/internal/service/pool"
	"github.com/iliamunaev/order-session-server/internal/service/tracker"
	"github.com/iliamunaev/order-session-server/internal/session"
	httptransport "github.com/iliamunaev/order-session-server/internal/transport/http"
)

// App owns the single ledger instance of a run.
type App struct {
	Ledger  *ledger.Ledger
	Tracker *tracker.Tracker
	Server  *server.Server
	Seed    uint64

	cfg   config.Config
	log   *slog.Logger
	final atomic.Pointer[[]model.Product]
}

// New seeds the catalog and builds the server on ln. A zero cfg.Seed
// picks a time-based seed. Any error here is fatal for the run.
func New(cfg config.Config, ln net.Listener, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	seeds, err := catalog.Seed(catalog.Params{
		Size:     cfg.CatalogSize,
		PriceMin: cfg.PriceMin,
		PriceMax: cfg.PriceMax,
		StockMin: cfg.StockMin,
		StockMax: cfg.StockMax,
	}, seed)
	if err != nil {
		return nil, fmt.Errorf("app: seed catalog: %w", err)
	}
	l, err := ledger.New(seeds)
	if err != nil {
		return nil, fmt.Errorf("app: init ledger: %w", err)
	}

	runner := session.NewRunner(l, session.Config{
		Orders: cfg.OrdersPerSession,
		Pacing: cfg.Pacing,
	}, log)

	tr := &tracker.Tracker{}
	srv := server.New(ln, pool.New(cfg.MaxSessions), runner, tr, server.Config{
		Population:   cfg.SessionPopulation,
		WriteTimeout: cfg.WriteTimeout,
		NewPicker: func(seq int) session.Picker {
			return session.NewRandomPicker(sessionSeed(seed, seq), cfg.CatalogSize, cfg.MaxOrderQty)
		},
	}, log)

	log.Info("catalog_seeded", "products", l.Len(), "seed", seed)

	return &App{
		Ledger:  l,
		Tracker: tr,
		Server:  srv,
		Seed:    seed,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Stats returns live session counters.
func (a *App) Stats() tracker.Stats { return a.Tracker.Stats() }

// FinalReport returns the sealed ledger state, or ErrReportNotReady while
// the session population is still active.
func (a *App) FinalReport() ([]model.Product, error) {
	p := a.final.Load()
	if p == nil {
		return nil, fmt.Errorf("app: sessions still active: %w", apperr.ErrReportNotReady)
	}
	return *p, nil
}

// AdminHandler returns the admin HTTP routes bound to this run.
func (a *App) AdminHandler() http.Handler {
	return httptransport.NewRouter(httptransport.New(a, a), a.log)
}

// Run serves the session population, waits for it to drain and writes the
// final report to out. When ctx is canceled the drain must finish within
// the configured shutdown timeout, otherwise no report is produced because
// the ledger cannot be read consistently.
func (a *App) Run(ctx context.Context, out io.Writer) (server.Summary, error) {
	type served struct {
		sum server.Summary
		err error
	}
	done := make(chan served, 1)
	go func() {
		sum, err := a.Server.Serve(ctx)
		done <- served{sum: sum, err: err}
	}()

	var res served
	select {
	case res = <-done:
	case <-ctx.Done():
		a.log.Info("shutdown_drain_begin", "running", a.Tracker.Running())
		t := time.NewTimer(a.cfg.ShutdownTimeout)
		defer t.Stop()
		select {
		case res = <-done:
		case <-t.C:
			return server.Summary{}, fmt.Errorf("app: drain: %w", context.DeadlineExceeded)
		}
	}
	if res.err != nil {
		return res.sum, res.err
	}

	products := a.Ledger.Snapshot()
	a.final.Store(&products)

	if err := report.Write(out, products); err != nil {
		return res.sum, fmt.Errorf("app: write report: %w", err)
	}
	totals := report.Summarize(products)
	a.log.Info("report_written",
		"orders", totals.Orders,
		"successful", totals.Successful,
		"failed", totals.Failed,
		"revenue", totals.Revenue.StringFixed(2))
	return res.sum, nil
}

// ServeAdmin runs the admin HTTP server until ctx is canceled.
func (a *App) ServeAdmin(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.AdminHandler(),
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	a.log.Info("admin_listen", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: admin: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: admin shutdown: %w", err)
	}
	return nil
}

// sessionSeed derives an independent stream per session from the run seed.
func sessionSeed(run uint64, seq int) uint64 {
	return run ^ (uint64(seq+1) * 0x9e3779b97f4a7c15)
}
