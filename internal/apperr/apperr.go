// Package apperr holds the error taxonomy shared across the server and
// maps errors to stable kinds for logs and HTTP statuses.
package apperr

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
)

var (
	ErrContractViolation = errors.New("contract violation")
	ErrLedgerSealed      = errors.New("ledger sealed")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrReportNotReady    = errors.New("report not ready")
)

// kinder is satisfied by errors that carry their own classification.
type kinder interface {
	Kind() string
}

func Kind(err error) string {
	var k kinder
	switch {
	case err == nil:
		return ""

	case errors.As(err, &k):
		return k.Kind()

	case errors.Is(err, ErrContractViolation):
		return "contract_violation"

	case errors.Is(err, ErrLedgerSealed):
		return "ledger_sealed"

	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"

	case errors.Is(err, ErrReportNotReady):
		return "report_not_ready"

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	case isConnectionClosed(err):
		return "connection_closed"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrReportNotReady):
		return http.StatusConflict

	case errors.Is(err, ErrInvalidConfig):
		return http.StatusBadRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func isConnectionClosed(err error) bool {
	return errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED)
}
