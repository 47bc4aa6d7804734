package inference

import (
	"fmt"

	"github.com/liamcoop/churn/features"
)

// Model is a fitted binary classifier over an N x features.Width() matrix.
// Implementations must not mutate themselves while predicting.
type Model interface {
	// Predict returns one class label (0 or 1) per row
	Predict(matrix [][]float64) ([]int, error)

	// PredictProba returns p(churn) per row
	PredictProba(matrix [][]float64) ([]float64, error)

	// Width is the input width the model was fit on, or 0 when unknown
	Width() int
}

// Handle is the immutable model reference shared by all requests
type Handle struct {
	model Model
	name  string
}

// NewHandle wraps a loaded model after checking its input width against
// the feature schema
func NewHandle(name string, m Model) (*Handle, error) {
	if m == nil {
		return nil, fmt.Errorf("model %s is nil", name)
	}
	if w := m.Width(); w != 0 && w != features.Width() {
		return nil, fmt.Errorf("model %s expects %d features, schema encodes %d", name, w, features.Width())
	}
	return &Handle{model: m, name: name}, nil
}

// Name identifies the loaded artifact
func (h *Handle) Name() string {
	return h.name
}

// score runs both model calls and checks they are index-aligned with the input
func (h *Handle) score(matrix [][]float64) ([]int, []float64, error) {
	labels, err := h.model.Predict(matrix)
	if err != nil {
		return nil, nil, fmt.Errorf("model predict failed: %w", err)
	}
	probs, err := h.model.PredictProba(matrix)
	if err != nil {
		return nil, nil, fmt.Errorf("model predict_proba failed: %w", err)
	}

	if len(labels) != len(matrix) || len(probs) != len(matrix) {
		return nil, nil, fmt.Errorf("model returned %d labels and %d probabilities for %d rows",
			len(labels), len(probs), len(matrix))
	}
	return labels, probs, nil
}
