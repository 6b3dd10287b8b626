package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// progressEvent is the data payload of an SSE progress event
type progressEvent struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// handleAnalyzeStream runs an analysis and streams stage transitions as
// server-sent events. Validation failures are reported as a plain 400
// before the stream opens; failures after that arrive as an error event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req := parseStreamRequest(r)
	if err := req.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid analysis request", err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming is not supported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Writes come from both this handler and the progress callback
	var mu sync.Mutex
	send := func(event string, data interface{}) {
		mu.Lock()
		defer mu.Unlock()
		payload, err := json.Marshal(data)
		if err != nil {
			s.logger.Error("Failed to marshal SSE payload", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	send("progress", progressEvent{Stage: "init", Status: "Initializing analysis..."})

	record, err := s.service.Analyze(r.Context(), req, func(stage, status string) {
		send("progress", progressEvent{Stage: stage, Status: status})
	})
	if err != nil {
		s.logger.Error("Streamed analysis failed", zap.Error(err))
		send("error", errorResponse{
			Error:   "analysis_failed",
			Message: "Failed to execute analysis",
			Details: err.Error(),
		})
		return
	}

	send("complete", record)
}
