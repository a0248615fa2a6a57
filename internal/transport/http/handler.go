// Package httptransport implements the admin HTTP surface: liveness,
// live session counters and the final report once the run has drained.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iliamunaev/order-session-server/internal/middleware"
	"github.com/iliamunaev/order-session-server/internal/model"
	"github.com/iliamunaev/order-session-server/internal/report"
	"github.com/iliamunaev/order-session-server/internal/service/tracker"
)

type statsSource interface {
	Stats() tracker.Stats
}

// reportSource returns the ledger's final state, or an error wrapping
// apperr.ErrReportNotReady while sessions may still be running.
type reportSource interface {
	FinalReport() ([]model.Product, error)
}

// Handler serves admin requests.
type Handler struct {
	stats  statsSource
	report reportSource
}

// ReportResponse is the JSON body of GET /report.
type ReportResponse struct {
	Products []model.Product `json:"products"`
	Totals   report.Totals   `json:"totals"`
}

// New panics if either source is nil.
func New(stats statsSource, rep reportSource) *Handler {
	if stats == nil || rep == nil {
		panic("httptransport.New: nil source")
	}
	return &Handler{stats: stats, report: rep}
}

// NewRouter mounts the admin routes behind request logging.
func NewRouter(h *Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", h.HandleHealth)
	r.Get("/sessions", h.HandleSessions)
	r.Get("/report", h.HandleReport)
	return r
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleSessions returns the live session counters.
func (h *Handler) HandleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Stats())
}

// HandleReport returns the final per-product report with totals.
// It answers 409 until every session has drained.
func (h *Handler) HandleReport(w http.ResponseWriter, _ *http.Request) {
	products, err := h.report.FinalReport()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{
		Products: products,
		Totals:   report.Summarize(products),
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
