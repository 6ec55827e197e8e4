package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/pipeline"
	"github.com/ppiankov/foodlens/internal/product"
	"github.com/ppiankov/foodlens/internal/source"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"registry_entries": s.registry.Len(),
		"scan_enabled":     s.scanner != nil,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestID(ctx)

	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	in, err := req.Input()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	start := time.Now()
	result := s.analyzer.Analyze(in)
	s.metrics.ObserveAnalysis("api", string(result.Safety.OverallRisk), result.HealthScore)

	s.logger.InfoContext(ctx, "analysis complete",
		"request_id", requestID,
		"ingredients", len(result.Ingredients),
		"safety_score", result.Safety.SafetyScore,
		"health_score", result.HealthScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RequestID: requestID,
		RiskMeter: model.BandForSafety(result.Safety.SafetyScore),
		Analysis:  result,
	})
}

func (s *Server) handleSafety(w http.ResponseWriter, r *http.Request) {
	var req SafetyRequest
	if !s.decode(w, r, &req) {
		return
	}

	safety := s.analyzer.AnalyzeSafety(req.Ingredients)

	writeJSON(w, http.StatusOK, SafetyResponse{
		RequestID: RequestID(r.Context()),
		RiskMeter: model.BandForSafety(safety.SafetyScore),
		Safety:    safety,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "scan_disabled", "scanning is not configured on this server")
		return
	}

	var req ScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.scanner.Run(r.Context(), pipeline.Request{
		Query:    req.Query,
		Kind:     model.InputKind(req.Kind),
		Question: req.Question,
	})
	if err != nil {
		status, code := scanErrorStatus(err)
		s.logger.WarnContext(r.Context(), "scan failed",
			"request_id", RequestID(r.Context()),
			"status", status,
			"error", err,
		)
		s.writeError(w, r, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.Entries()
	writeJSON(w, http.StatusOK, RegistryResponse{Count: len(entries), Entries: entries})
}

func (s *Server) handleRegistryEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.registry.Lookup(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "not_found", "no registry entry with that name")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// scanErrorStatus maps pipeline failures onto HTTP statuses
func scanErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, source.ErrEmptyInput), errors.Is(err, source.ErrUnknownKind):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, source.ErrNoLookup):
		return http.StatusServiceUnavailable, "lookup_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// decode reads and validates a JSON body, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:       code,
		Description: description,
		RequestID:   RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
