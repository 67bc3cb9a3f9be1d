package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docstream/docstream/internal/query"
	"github.com/docstream/docstream/internal/schema"
)

// SubscriptionHandler binds live queries and answers with the
// cursor's current result set. Continuous push is the external sync
// layer's job; it drives re-evaluation off the change feed and calls
// back in here.
type SubscriptionHandler struct {
	registry *query.Registry
	logger   *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(registry *query.Registry, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		registry: registry,
		logger:   logger,
	}
}

// subscriptionResponse carries one evaluation of a live query.
type subscriptionResponse struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}

// Snapshot handles GET /subscriptions/{name}.
// Positional arguments arrive in the optional "args" query parameter
// as a JSON array, e.g. ?args=["ali"] for users.byName.
func (h *SubscriptionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SUBSCRIPTION", "Subscription name is required")
		return
	}

	var args []any
	if raw := r.URL.Query().Get("args"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "args must be a JSON array")
			return
		}
	}

	cursor, err := h.registry.Subscribe(name, args)
	if err != nil {
		h.handleSubscribeError(w, name, err)
		return
	}

	docs, err := cursor.Fetch(r.Context())
	if err != nil {
		h.logger.Error("cursor fetch failed", "subscription", name, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	rows := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, doc.Flatten())
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{Name: cursor.Name(), Rows: rows})
}

// handleSubscribeError maps bind errors to HTTP responses.
func (h *SubscriptionHandler) handleSubscribeError(w http.ResponseWriter, name string, err error) {
	var argErr *schema.ArgumentError

	switch {
	case errors.As(err, &argErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    argErr.Message,
			Code:     argErr.Code,
			Argument: argErr.Argument,
		})
	case errors.Is(err, query.ErrUnknownQuery):
		writeError(w, http.StatusNotFound, "UNKNOWN_SUBSCRIPTION", "No such subscription")
	default:
		h.logger.Error("subscribe failed", "subscription", name, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
