package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/briefler/briefler/internal/core"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// errorResponse is the error body for every non-2xx JSON response
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// handleAnalyze runs a synchronous analysis from a JSON body
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req core.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON", err.Error())
		return
	}

	record, err := s.service.Analyze(r.Context(), &req, nil)
	if err != nil {
		if core.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, "validation_error", "Invalid analysis request", err.Error())
			return
		}
		s.logger.Error("Analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis_failed", "Failed to execute analysis", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleHistoryList returns a paginated history listing
func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		writeError(w, http.StatusBadRequest, "validation_error", "limit must be between 1 and 100", "")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "offset must not be negative", "")
		return
	}

	page, err := s.history.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history_error", "Failed to list analysis history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleHistoryGet returns a single analysis record by id
func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Analysis not found", id)
			return
		}
		s.logger.Error("Failed to read history record", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "history_error", "Failed to read analysis record", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        "Briefler API",
		"version":     serviceVersion,
		"description": "REST API for Gmail unread-mail analysis",
	})
}

// parseStreamRequest builds an analysis request from stream query parameters
func parseStreamRequest(r *http.Request) *core.AnalysisRequest {
	q := r.URL.Query()

	req := &core.AnalysisRequest{
		Language: q.Get("language"),
	}
	for _, sender := range strings.Split(q.Get("sender_emails"), ",") {
		if sender = strings.TrimSpace(sender); sender != "" {
			req.SenderEmails = append(req.SenderEmails, sender)
		}
	}
	if days := q.Get("days"); days != "" {
		// Normalize rejects anything out of range, including parse failures
		if n, err := strconv.Atoi(days); err == nil {
			req.Days = n
		} else {
			req.Days = -1
		}
	}
	return req
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}
