package inference

import (
	"errors"
	"fmt"
	"time"
)

// Result is the outcome of scoring a single record
type Result struct {
	ChurnPrediction  int     `json:"churn_prediction"`
	ChurnProbability float64 `json:"churn_probability"`
}

// BatchItem is one index-aligned entry of a batch result
type BatchItem struct {
	Index            int     `json:"index"`
	ChurnPrediction  int     `json:"churn_prediction"`
	ChurnProbability float64 `json:"churn_probability"`
}

// BatchResult holds one item per input record, in input order
type BatchResult struct {
	RequestID string      `json:"request_id"`
	Items     []BatchItem `json:"predictions"`
}

// BatchError reports the first record rejected during batch validation
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Reason is the validation message without the index prefix
func (e *BatchError) Reason() string {
	return e.Err.Error()
}

var (
	// ErrEmptyBatch is returned when a batch contains no records
	ErrEmptyBatch = errors.New("batch must contain at least one record")

	// ErrBatchEncoding wraps the first encoding failure of a batch.
	// The failing record is not identified.
	ErrBatchEncoding = errors.New("batch encoding failed")
)

// Source identifies the entry point that produced a prediction
type Source string

const (
	SourceSingle Source = "single"
	SourceBatch  Source = "batch"
	SourceFile   Source = "file"
)

// PredictionLog is an audit entry for one scored request
type PredictionLog struct {
	RequestID string
	Source    Source
	Records   int
	Positives int
	Items     []BatchItem
	Duration  time.Duration
	CreatedAt time.Time
}
