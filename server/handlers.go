package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/etnz/stresslab"
)

// handlers groups the endpoint implementations around the service.
type handlers struct {
	service *stresslab.Service
	started time.Time
}

func newHandlers(service *stresslab.Service) *handlers {
	return &handlers{service: service, started: time.Now()}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: requestID,
	})
}

// writeServiceError maps service errors onto HTTP statuses: bad inputs
// are 400, a missing analysis is 404, everything else is 500.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stresslab.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	case stresslab.IsValidation(err):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// Health reports liveness and cache occupancy.
func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Store().Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"cached_items":   stats.Items,
	})
}

// Analyze runs the baseline pipeline.
func (h *handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req stresslab.AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Stress runs the baseline and shocked pipelines side by side.
func (h *handlers) Stress(w http.ResponseWriter, r *http.Request) {
	var req stresslab.StressRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.AnalyzeWithShock(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Forecast projects a cached analysis forward.
func (h *handlers) Forecast(w http.ResponseWriter, r *http.Request) {
	var req stresslab.ForecastRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Forecast(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats reports the analysis cache configuration and occupancy.
func (h *handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Store().Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items":       stats.Items,
		"capacity":    stats.Capacity,
		"ttl_seconds": int(stats.TTL.Seconds()),
	})
}

// DeleteAnalysis drops one cached analysis.
func (h *handlers) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.service.Store().Delete(id) {
		h.writeError(w, r, http.StatusNotFound, "analysis "+id+" not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// NotFound handles unknown routes.
func (h *handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "the requested endpoint does not exist")
}
