package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docstream/docstream/internal/method"
	"github.com/docstream/docstream/internal/schema"
)

// RPCHandler dispatches method calls to the method registry. The
// request body is the positional argument list as a JSON array; an
// empty body means no arguments.
type RPCHandler struct {
	registry *method.Registry
	logger   *slog.Logger
}

// NewRPCHandler creates a new RPCHandler.
func NewRPCHandler(registry *method.Registry, logger *slog.Logger) *RPCHandler {
	return &RPCHandler{
		registry: registry,
		logger:   logger,
	}
}

// rpcResponse wraps a successful method result.
type rpcResponse struct {
	Result any `json:"result"`
}

// Call handles POST /rpc/{method}.
func (h *RPCHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "method")
	if name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_METHOD", "Method name is required")
		return
	}

	args, err := decodeArgs(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON array of arguments")
		return
	}

	result, err := h.registry.Call(r.Context(), name, args)
	if err != nil {
		h.handleCallError(w, name, err)
		return
	}

	writeJSON(w, http.StatusOK, rpcResponse{Result: result})
}

// handleCallError maps method errors to HTTP responses.
func (h *RPCHandler) handleCallError(w http.ResponseWriter, name string, err error) {
	var argErr *schema.ArgumentError

	switch {
	case errors.As(err, &argErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    argErr.Message,
			Code:     argErr.Code,
			Argument: argErr.Argument,
		})
	case errors.Is(err, method.ErrUnknownMethod):
		writeError(w, http.StatusNotFound, "UNKNOWN_METHOD", "No such method")
	default:
		// Store-level failures stay opaque to the caller.
		h.logger.Error("method call failed", "method", name, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// decodeArgs reads a JSON array of positional arguments. An empty
// body decodes to no arguments.
func decodeArgs(body io.Reader) ([]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var args []any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, err
	}
	return args, nil
}
