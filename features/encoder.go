package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errNotFinite   = errors.New("value is not finite")
	errUnsupported = errors.New("unsupported value type")
)

// Encode converts a record into the model's feature vector, walking the
// schema in order. Unknown labels are an error and are never mapped to a
// default code.
func Encode(r Record) (Vector, error) {
	vec := make(Vector, 0, len(schema))
	for _, f := range schema {
		raw, ok := r[f.Name]
		if !ok {
			return nil, &EncodingError{Kind: TypeCoercionFailure, Field: f.Name, Err: errors.New("field is missing")}
		}

		v, err := encodeField(f, raw)
		if err != nil {
			return nil, err
		}
		vec = append(vec, v)
	}
	return vec, nil
}

// EncodeAll encodes records into a matrix whose row order matches the input
func EncodeAll(records []Record) ([][]float64, error) {
	matrix := make([][]float64, len(records))
	for i, r := range records {
		vec, err := Encode(r)
		if err != nil {
			return nil, err
		}
		matrix[i] = vec
	}
	return matrix, nil
}

func encodeField(f Field, raw any) (float64, error) {
	switch f.Kind {
	case Categorical:
		label, ok := raw.(string)
		if !ok {
			return 0, &EncodingError{Kind: UnknownCategory, Field: f.Name, Value: raw}
		}
		code, ok := Code(f.Name, label)
		if !ok {
			return 0, &EncodingError{Kind: UnknownCategory, Field: f.Name, Value: raw}
		}
		return float64(code), nil

	case Integer:
		n, err := toInt(raw)
		if err != nil {
			return 0, &EncodingError{Kind: TypeCoercionFailure, Field: f.Name, Value: raw, Err: err}
		}
		return float64(n), nil

	case Float:
		x, err := toFloat(raw)
		if err != nil {
			return 0, &EncodingError{Kind: TypeCoercionFailure, Field: f.Name, Value: raw, Err: err}
		}
		return x, nil
	}

	return 0, fmt.Errorf("field %s has unknown kind %d", f.Name, f.Kind)
}

// toInt truncates toward zero for floats and requires base-10 for strings
func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, strconv.ErrRange
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float32:
		return truncate(float64(v))
	case float64:
		return truncate(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return truncate(f)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return 0, errUnsupported
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}

func toFloat(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case json.Number:
		x, err := v.Float64()
		if err != nil {
			return 0, err
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		f = x
	default:
		return 0, errUnsupported
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}
