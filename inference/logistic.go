package inference

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/liamcoop/churn/features"
)

// LogisticModel is a fitted binary logistic regression.
// A nil Threshold labels at 0.5.
type LogisticModel struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Threshold    *float64  `json:"threshold,omitempty"`
}

// LoadLogisticModel reads a JSON model artifact from path
func LoadLogisticModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}
	return &m, nil
}

func (m *LogisticModel) check() error {
	if len(m.Weights) == 0 {
		return fmt.Errorf("model has no weights")
	}
	if m.FeatureNames != nil {
		if len(m.FeatureNames) != len(m.Weights) {
			return fmt.Errorf("%d feature names for %d weights", len(m.FeatureNames), len(m.Weights))
		}
		if !slices.Equal(m.FeatureNames, features.Fields()) {
			return fmt.Errorf("feature order %v does not match schema %v", m.FeatureNames, features.Fields())
		}
	}
	if t := m.Threshold; t != nil && (*t < 0 || *t > 1 || math.IsNaN(*t)) {
		return fmt.Errorf("threshold %v outside [0,1]", *t)
	}
	return nil
}

func (m *LogisticModel) Width() int {
	return len(m.Weights)
}

func (m *LogisticModel) threshold() float64 {
	if m.Threshold == nil {
		return 0.5
	}
	return *m.Threshold
}

// PredictProba returns the sigmoid of the linear score for each row
func (m *LogisticModel) PredictProba(matrix [][]float64) ([]float64, error) {
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(m.Weights))
		}
		z := m.Bias
		for j, x := range row {
			z += m.Weights[j] * x
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Predict labels a row 1 when its probability reaches the threshold
func (m *LogisticModel) Predict(matrix [][]float64) ([]int, error) {
	probs, err := m.PredictProba(matrix)
	if err != nil {
		return nil, err
	}

	t := m.threshold()
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p >= t {
			labels[i] = 1
		}
	}
	return labels, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
