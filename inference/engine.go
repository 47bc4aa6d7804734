package inference

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/liamcoop/churn/features"
	"github.com/liamcoop/churn/internal/logger"
)

// Engine runs the validate -> encode -> score pipeline against one model.
// It holds no mutable state; concurrent calls are safe as long as the
// configured PredictionStore is.
type Engine struct {
	model     *Handle
	validator *features.Validator
	store     PredictionStore
}

// NewEngine creates an engine with the built-in consistency rules.
// store may be nil to disable the audit log.
func NewEngine(model *Handle, store PredictionStore) (*Engine, error) {
	return NewEngineWithRules(model, store, features.ConsistencyRules)
}

// NewEngineWithRules creates an engine with a custom consistency rule set
func NewEngineWithRules(model *Handle, store PredictionStore, rules []features.Rule) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("model handle is required")
	}

	v, err := features.NewValidator(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile consistency rules: %w", err)
	}

	return &Engine{
		model:     model,
		validator: v,
		store:     store,
	}, nil
}

// Model returns the handle the engine scores with
func (en *Engine) Model() *Handle {
	return en.model
}

// Predict validates, encodes and scores a single record
func (en *Engine) Predict(r features.Record) (*Result, error) {
	start := time.Now()

	if err := en.validator.Validate(r); err != nil {
		logger.RecordRejected()
		return nil, err
	}

	vec, err := features.Encode(r)
	if err != nil {
		logger.RecordRejected()
		return nil, err
	}

	labels, probs, err := en.model.score([][]float64{vec})
	if err != nil {
		return nil, err
	}

	res := &Result{
		ChurnPrediction:  labels[0],
		ChurnProbability: roundProbability(probs[0]),
	}

	en.audit(SourceSingle, []BatchItem{{
		ChurnPrediction:  res.ChurnPrediction,
		ChurnProbability: res.ChurnProbability,
	}}, start)

	return res, nil
}

// ProcessBatch scores records from a batch request
func (en *Engine) ProcessBatch(records []features.Record) (*BatchResult, error) {
	return en.processBatch(SourceBatch, records)
}

// ProcessFile scores records ingested from an uploaded table
func (en *Engine) ProcessFile(records []features.Record) (*BatchResult, error) {
	return en.processBatch(SourceFile, records)
}

// processBatch validates every record before encoding any. The first
// invalid record rejects the whole batch with its index; an encoding
// failure rejects it without one. The model is called once per batch.
func (en *Engine) processBatch(src Source, records []features.Record) (*BatchResult, error) {
	start := time.Now()

	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, r := range records {
		if err := en.validator.Validate(r); err != nil {
			logger.RecordRejected()
			return nil, &BatchError{Index: i, Err: err}
		}
	}

	matrix, err := features.EncodeAll(records)
	if err != nil {
		logger.RecordRejected()
		return nil, fmt.Errorf("%w: %w", ErrBatchEncoding, err)
	}

	labels, probs, err := en.model.score(matrix)
	if err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(records))
	for i := range records {
		items[i] = BatchItem{
			Index:            i,
			ChurnPrediction:  labels[i],
			ChurnProbability: roundProbability(probs[i]),
		}
	}

	return &BatchResult{
		RequestID: en.audit(src, items, start),
		Items:     items,
	}, nil
}

// audit records a scored request. Store failures are logged only.
func (en *Engine) audit(src Source, items []BatchItem, start time.Time) string {
	id := uuid.NewString()
	logger.RowsScored(len(items))

	if en.store == nil {
		return id
	}

	entry := &PredictionLog{
		RequestID: id,
		Source:    src,
		Records:   len(items),
		Items:     items,
		Duration:  time.Since(start),
		CreatedAt: time.Now().UTC(),
	}
	for _, it := range items {
		entry.Positives += it.ChurnPrediction
	}

	if err := en.store.Add(entry); err != nil {
		logger.Warn("failed to store prediction log", "request_id", id, "source", string(src), "error", err)
	}
	return id
}

// roundProbability rounds the exact binary value of p to four decimals,
// ties to even, so 0.03125 becomes 0.0312
func roundProbability(p float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 4, 64), 64)
	if err != nil {
		return p
	}
	return r
}
