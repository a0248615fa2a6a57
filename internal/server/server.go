// Package server accepts client connections and runs one session per
// connection against the shared ledger.
//
// At most pool-size sessions run at once. Serve returns only after every
// spawned session has reached a terminal state, so the caller may read
// the ledger's final state as soon as it returns.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/order-session-server/internal/service/shared"
	"github.com/iliamunaev/order-session-server/internal/service/tracker"
	"github.com/iliamunaev/order-session-server/internal/session"
	"github.com/iliamunaev/order-session-server/internal/transport/tcp"
)

const maxAcceptBackoff = time.Second

// Config tunes a Server.
type Config struct {
	// Population is how many accept attempts to make before draining.
	// Zero accepts until the context is canceled.
	Population   int
	WriteTimeout time.Duration
	// NewPicker returns the order generator for the seq-th session.
	NewPicker func(seq int) session.Picker
	// NewID defaults to random UUIDs.
	NewID func() string
}

// Limiter bounds concurrent sessions; *pool.Pool satisfies it.
type Limiter interface {
	Acquire(context.Context) error
	Release()
	Cap() int
}

// Summary describes a drained population.
type Summary struct {
	Accepted     int  `json:"accepted"`
	AcceptErrors int  `json:"accept_errors"`
	Completed    int  `json:"completed"`
	Aborted      int  `json:"aborted"`
	Interrupted  bool `json:"interrupted"`
}

// Server owns a listener and spawns sessions from a Runner.
type Server struct {
	ln     net.Listener
	pool   Limiter
	runner *session.Runner
	tr     *tracker.Tracker
	cfg    Config
	log    *slog.Logger

	mu      sync.Mutex
	summary Summary
}

// New panics if any dependency or cfg.NewPicker is nil.
func New(ln net.Listener, p Limiter, runner *session.Runner, tr *tracker.Tracker, cfg Config, log *slog.Logger) *Server {
	if ln == nil || p == nil || runner == nil || cfg.NewPicker == nil {
		panic("server.New: nil dependency")
	}
	if tr == nil {
		tr = &tracker.Tracker{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{ln: ln, pool: p, runner: runner, tr: tr, cfg: cfg, log: log}
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until the population is reached, the context
// is canceled, or the listener fails, then waits for every session.
//
// Canceling ctx closes the listener and every open connection, which
// aborts running sessions; that is a normal shutdown and returns a nil
// error with Summary.Interrupted set.
func (s *Server) Serve(ctx context.Context) (Summary, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.ln.Close() })
	defer stop()

	s.log.Info("server_listening",
		"addr", s.ln.Addr().String(),
		"max_sessions", s.pool.Cap(),
		"population", s.cfg.Population)

	var (
		g         errgroup.Group
		serveErr  error
		tempDelay time.Duration
	)

	for seq := 0; s.cfg.Population == 0 || seq < s.cfg.Population; seq++ {
		if err := s.pool.Acquire(ctx); err != nil {
			break
		}

		nc, err := s.ln.Accept()
		if err != nil {
			s.pool.Release()
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				serveErr = fmt.Errorf("server: accept: %w", err)
				break
			}

			s.mu.Lock()
			s.summary.AcceptErrors++
			s.mu.Unlock()
			s.log.Warn("accept_error", "error", err)

			tempDelay = backoff(tempDelay)
			if shared.SleepOrDone(ctx, tempDelay) != nil {
				break
			}
			continue
		}
		tempDelay = 0

		g.Go(func() error {
			defer s.pool.Release()
			s.handle(ctx, seq, nc)
			// Session failures stay local to the session.
			return nil
		})
	}

	_ = g.Wait()

	s.mu.Lock()
	sum := s.summary
	s.mu.Unlock()
	sum.Interrupted = ctx.Err() != nil

	s.log.Info("server_drained",
		"accepted", sum.Accepted,
		"completed", sum.Completed,
		"aborted", sum.Aborted,
		"accept_errors", sum.AcceptErrors,
		"interrupted", sum.Interrupted)
	return sum, serveErr
}

func (s *Server) handle(ctx context.Context, seq int, nc net.Conn) {
	closeOnCancel := context.AfterFunc(ctx, func() { _ = nc.Close() })
	defer func() {
		closeOnCancel()
		_ = nc.Close()
	}()

	id := s.cfg.NewID()
	s.tr.Start()
	s.mu.Lock()
	s.summary.Accepted++
	s.mu.Unlock()

	s.log.Debug("session_accepted", "session_id", id, "remote", nc.RemoteAddr().String(), "seq", seq)

	conn := tcp.NewConn(nc, s.cfg.WriteTimeout)
	res := s.runner.Session(id, conn, s.cfg.NewPicker(seq)).Run(ctx)

	completed := res.State == session.Completed
	s.tr.Finish(completed)
	s.mu.Lock()
	if completed {
		s.summary.Completed++
	} else {
		s.summary.Aborted++
	}
	s.mu.Unlock()
}

func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > maxAcceptBackoff {
		d = maxAcceptBackoff
	}
	return d
}
