// Package session drives one client's fixed sequence of synthetic orders
// against the shared ledger.
//
// Each order produces two messages on the session's connection, the
// request and then the outcome. Sessions pace themselves between orders
// with a cancellable delay that holds no ledger lock.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/model"
	"github.com/iliamunaev/order-session-server/internal/service/shared"
)

// DefaultOrders is the number of orders a session issues.
const DefaultOrders = 10

// Sender delivers one message to the client, in the order sent.
type Sender interface {
	Send(ctx context.Context, msg string) error
}

// Evaluator is the ledger operation a session needs.
type Evaluator interface {
	EvaluateOrder(productIndex, quantity int) model.Outcome
}

// State is the lifecycle position of a session.
type State int32

const (
	Pending State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further orders will be issued.
func (s State) Terminal() bool { return s == Completed || s == Aborted }

// Config tunes a Runner. Zero values select the defaults.
type Config struct {
	Orders int
	Pacing time.Duration
	// Sleep replaces the pacing wait; tests use it to skip real time.
	Sleep shared.SleepFunc
}

// Runner creates sessions that share one ledger and configuration.
type Runner struct {
	ledger Evaluator
	orders int
	pacing time.Duration
	sleep  shared.SleepFunc
	log    *slog.Logger
}

// NewRunner panics if ledger is nil. A nil logger uses slog.Default().
func NewRunner(ledger Evaluator, cfg Config, log *slog.Logger) *Runner {
	if ledger == nil {
		panic("session.NewRunner: nil ledger")
	}
	if cfg.Orders <= 0 {
		cfg.Orders = DefaultOrders
	}
	if cfg.Sleep == nil {
		cfg.Sleep = shared.SleepOrDone
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		ledger: ledger,
		orders: cfg.Orders,
		pacing: cfg.Pacing,
		sleep:  cfg.Sleep,
		log:    log,
	}
}

// Result summarizes a finished session. Orders counts evaluated orders,
// which stay committed in the ledger even when the session aborts.
type Result struct {
	ID        string
	State     State
	Orders    int
	Succeeded int
	Failed    int
	Err       error
}

// Kind classifies the error that ended an aborted session.
func (r Result) Kind() string { return apperr.Kind(r.Err) }

// Session is one client's run. It moves Pending -> Running -> Completed,
// or to Aborted when its connection fails or its context ends.
type Session struct {
	id     string
	runner *Runner
	sender Sender
	picker Picker
	state  atomic.Int32
}

// Session returns a new pending session.
func (r *Runner) Session(id string, sender Sender, picker Picker) *Session {
	if sender == nil || picker == nil {
		panic("session.Runner.Session: nil sender or picker")
	}
	return &Session{id: id, runner: r, sender: sender, picker: picker}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Run issues the session's orders and blocks until it reaches a terminal
// state. A session can only be run once.
func (s *Session) Run(ctx context.Context) Result {
	if !s.state.CompareAndSwap(int32(Pending), int32(Running)) {
		panic(fmt.Sprintf("session %s: run from state %s", s.id, s.State()))
	}

	r := s.runner
	log := r.log.With("session_id", s.id)
	log.Info("session_started", "orders", r.orders)

	res := Result{ID: s.id}
	start := time.Now()
	res.Err = s.loop(ctx, &res)

	res.State = Completed
	if res.Err != nil {
		res.State = Aborted
	}
	s.state.Store(int32(res.State))

	attrs := []any{
		"state", res.State.String(),
		"orders", res.Orders,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"duration", time.Since(start),
	}
	if res.Err != nil {
		log.Warn("session_finished", append(attrs, "kind", res.Kind(), "error", res.Err)...)
	} else {
		log.Info("session_finished", attrs...)
	}
	return res
}

func (s *Session) loop(ctx context.Context, res *Result) error {
	r := s.runner
	for i := 0; i < r.orders; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req := s.picker.Pick()
		if err := s.sender.Send(ctx, RequestMessage(req)); err != nil {
			return fmt.Errorf("send request %d: %w", i+1, err)
		}

		out := r.ledger.EvaluateOrder(req.ProductIndex, req.Quantity)
		res.Orders++
		if out.Kind == model.Success {
			res.Succeeded++
		} else {
			res.Failed++
		}

		if err := s.sender.Send(ctx, OutcomeMessage(out)); err != nil {
			return fmt.Errorf("send outcome %d: %w", i+1, err)
		}

		if i < r.orders-1 {
			if err := r.sleep(ctx, r.pacing); err != nil {
				return err
			}
		}
	}
	return nil
}
