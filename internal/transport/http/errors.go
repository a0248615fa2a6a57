package httptransport

import (
	"net/http"

	"github.com/iliamunaev/order-session-server/internal/apperr"
)

// ErrorPayload describes an error response.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// writeError maps err to a status and a classified payload.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), ErrorPayload{
		Kind:    apperr.Kind(err),
		Message: err.Error(),
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorPayload{Kind: "not_found"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorPayload{Kind: "method_not_allowed"})
}
