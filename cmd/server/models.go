package main

import (
	"time"

	"github.com/liamcoop/churn/features"
	"github.com/liamcoop/churn/inference"
	"github.com/liamcoop/churn/internal/logger"
)

// API request and response models

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Features features.Record `json:"features"`
}

// BatchRequest is the body of POST /predict/batch
type BatchRequest struct {
	Dataset []features.Record `json:"dataset"`
}

// IngestResponse carries the rows that survived cleaning
type IngestResponse struct {
	Records []features.Record `json:"records"`
	Dropped int               `json:"dropped"`
}

// ErrorResponse represents an error response. Index is set only when a
// batch is rejected during validation.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Index   *int   `json:"index,omitempty"`
	Details string `json:"details,omitempty"`
}

// HomeResponse is the service banner
type HomeResponse struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string       `json:"status"`
	ModelLoaded bool         `json:"model_loaded"`
	Model       string       `json:"model,omitempty"`
	Database    string       `json:"database,omitempty"`
	Stats       logger.Stats `json:"stats"`
}

// PredictionLogResponse is an audit entry in API responses
type PredictionLogResponse struct {
	RequestID  string                `json:"request_id"`
	Source     string                `json:"source"`
	Records    int                   `json:"records"`
	Positives  int                   `json:"positives"`
	DurationMS float64               `json:"duration_ms"`
	CreatedAt  time.Time             `json:"created_at"`
	Items      []inference.BatchItem `json:"predictions,omitempty"`
}

// PredictionLogsResponse lists audit entries, newest first
type PredictionLogsResponse struct {
	Predictions []PredictionLogResponse `json:"predictions"`
}

func toPredictionLogResponse(e *inference.PredictionLog, withItems bool) PredictionLogResponse {
	resp := PredictionLogResponse{
		RequestID:  e.RequestID,
		Source:     string(e.Source),
		Records:    e.Records,
		Positives:  e.Positives,
		DurationMS: float64(e.Duration) / float64(time.Millisecond),
		CreatedAt:  e.CreatedAt,
	}
	if withItems {
		resp.Items = e.Items
	}
	return resp
}
