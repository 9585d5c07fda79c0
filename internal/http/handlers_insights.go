package http

import (
	"log/slog"
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/validation"
)

func (s *Server) handleInsightsHistory(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeErrorMessage(w, r, http.StatusServiceUnavailable, msgInsightsDown)
		return
	}
	msgs, err := s.insights.History(r.Context())
	if err != nil {
		s.logInsightsError(r, err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msgs)
}

// handleInsightsChat forwards one user message and returns the reply.
func (s *Server) handleInsightsChat(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	text, err := validation.ChatRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.insights == nil {
		writeErrorMessage(w, r, http.StatusServiceUnavailable, msgInsightsDown)
		return
	}
	reply, err := s.insights.Chat(r.Context(), text)
	if err != nil {
		s.logInsightsError(r, err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reply)
}

func (s *Server) logInsightsError(r *http.Request, err error) {
	slog.WarnContext(r.Context(), "Insights backend call failed",
		applog.FieldComponent, applog.ComponentInsights,
		applog.FieldOperation, applog.OpProxy,
		applog.FieldError, err)
}
