package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/insights"
)

// Messages rendered for failures that carry no user-facing text.
const (
	msgInternal           = "Internal Server Error"
	msgNotFound           = "Not Found"
	msgMethodNotAllowed   = "Method Not Allowed"
	msgTooManyRequests    = "Too many requests, please try again later."
	msgBodyTooLarge       = "request entity too large"
	msgUnauthorized       = "Authentication required"
	msgInsightsDown       = "Insights service unavailable"
	msgInsightsBadGateway = "Insights service returned an invalid response"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "url", r.URL.Path)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: msgInternal})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorBody{Error: message})
}

// writeError maps err to a status code and renders {"error": message}.
// Unclassified errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	writeErrorMessage(w, r, status, message)
}

func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, msgBodyTooLarge
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, core.Message(err)
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, core.Message(err)
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, core.Message(err)
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, core.Message(err)
	case errors.Is(err, insights.ErrUnavailable):
		return http.StatusServiceUnavailable, msgInsightsDown
	case errors.Is(err, insights.ErrBadResponse):
		return http.StatusBadGateway, msgInsightsBadGateway
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeErrorMessage(w, r, http.StatusNotFound, msgNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorMessage(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeErrorMessage(w, r, http.StatusTooManyRequests, msgTooManyRequests)
}
