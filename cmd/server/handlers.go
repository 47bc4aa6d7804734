package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/liamcoop/churn/features"
	"github.com/liamcoop/churn/inference"
	"github.com/liamcoop/churn/internal/logger"
	"github.com/liamcoop/churn/tabular"
)

const defaultListLimit = 50

// Home handler
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HomeResponse{
		Service: "Churn Prediction API",
		Status:  "running",
		Message: "Production ML API is live",
		Endpoints: map[string]string{
			"/health":        "Health check endpoint",
			"/predict":       "POST endpoint for churn prediction",
			"/predict/batch": "POST endpoint for batch churn prediction",
			"/predict/file":  "POST a CSV upload for batch churn prediction",
			"/ingest":        "POST a CSV upload, returns the cleaned records",
			"/predictions":   "GET recent prediction audit entries",
		},
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "API running",
		ModelLoaded: s.engine != nil,
		Stats:       logger.Snapshot(),
	}
	if s.engine != nil {
		resp.Model = s.engine.Model().Name()
	}

	// the audit store is optional, so a dead database does not fail the check
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			logger.Warn("Database ping failed", "error", err)
			resp.Database = "unreachable"
		} else {
			resp.Database = "ok"
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Single prediction handler
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Features == nil {
		respondError(w, http.StatusBadRequest, "Missing 'features' in request", nil)
		return
	}

	result, err := s.engine.Predict(req.Features)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Batch prediction handler
func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Dataset == nil {
		respondError(w, http.StatusBadRequest, "Missing 'dataset' in request", nil)
		return
	}

	result, err := s.engine.ProcessBatch(req.Dataset)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Ingest handler: CSV upload in, cleaned records out. Nothing is scored.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	table, records, ok := s.ingestUpload(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{
		Records: records,
		Dropped: len(table.Rows) - len(records),
	})
}

// File prediction handler: ingest the upload, then score it as one batch
func (s *Server) handlePredictFile(w http.ResponseWriter, r *http.Request) {
	_, records, ok := s.ingestUpload(w, r)
	if !ok {
		return
	}

	result, err := s.engine.ProcessFile(records)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// List audit entries handler
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "prediction audit log is disabled", nil)
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	entries, err := s.store.List(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list predictions", err)
		return
	}

	resp := PredictionLogsResponse{Predictions: make([]PredictionLogResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Predictions = append(resp.Predictions, toPredictionLogResponse(e, false))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Get audit entry handler
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "prediction audit log is disabled", nil)
		return
	}
	requestID := chi.URLParam(r, "requestId")
	if _, err := uuid.Parse(requestID); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id", err)
		return
	}

	entry, err := s.store.Get(requestID)
	if errors.Is(err, inference.ErrPredictionNotFound) {
		respondError(w, http.StatusNotFound, "prediction not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get prediction", err)
		return
	}

	respondJSON(w, http.StatusOK, toPredictionLogResponse(entry, true))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// ingestUpload reads the multipart "file" field and converts it into
// records. It writes the error response itself and reports ok=false on
// failure.
func (s *Server) ingestUpload(w http.ResponseWriter, r *http.Request) (*tabular.Table, []features.Record, bool) {
	table, err := s.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload too large", err)
			return nil, nil, false
		}
		respondError(w, http.StatusBadRequest, "failed to read upload", err)
		return nil, nil, false
	}

	records, err := tabular.Ingest(table)
	if err != nil {
		// every ingestion failure is a problem with the uploaded file
		resp := ErrorResponse{Error: err.Error()}
		if kind, ok := features.KindOf(err); ok {
			resp.Kind = string(kind)
		}
		respondJSON(w, http.StatusBadRequest, resp)
		return nil, nil, false
	}

	return table, records, true
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*tabular.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing 'file' upload: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(header.Filename), ".tsv") {
		return tabular.ReadDelimited(file, '\t')
	}
	return tabular.ReadCSV(file)
}

// respondFailure maps a pipeline error to a response. Record-level
// failures are the client's; anything else is a model or server fault.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var batchErr *inference.BatchError
	if errors.As(err, &batchErr) {
		index := batchErr.Index
		resp.Index = &index
		resp.Error = batchErr.Reason()
	}

	if kind, ok := features.KindOf(err); ok {
		status = http.StatusBadRequest
		resp.Kind = string(kind)
	}
	if errors.Is(err, inference.ErrEmptyBatch) || errors.Is(err, inference.ErrBatchEncoding) {
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error("Prediction failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		resp = ErrorResponse{Error: "prediction failed", Details: err.Error()}
	}

	respondJSON(w, status, resp)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	respondJSON(w, status, resp)
}
