package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/liamcoop/churn/features"
)

// Table is a rectangular dataset with named columns.
// Rows hold raw cell text in column order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// SchemaError reports required columns absent from a table header
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "Missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *SchemaError) ErrorKind() features.ErrorKind {
	return features.SchemaMissingColumn
}

// missingMarkers are cell values treated as absent, besides blank cells
var missingMarkers = map[string]bool{
	"NA":       true,
	"N/A":      true,
	"NaN":      true,
	"nan":      true,
	"null":     true,
	"NULL":     true,
	"None":     true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"n/a":      true,
}

// IsMissing reports whether a cell counts as absent
func IsMissing(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || missingMarkers[s]
}

// ValidateColumns checks the header is a superset of the schema fields
func ValidateColumns(columns []string) error {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}

	var missing []string
	for _, f := range features.Fields() {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Clean returns the rows that have a value in every column
func Clean(t *Table) [][]string {
	kept := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if complete(row, len(t.Columns)) {
			kept = append(kept, row)
		}
	}
	return kept
}

func complete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for _, cell := range row[:width] {
		if IsMissing(cell) {
			return false
		}
	}
	return true
}

// Ingest validates the table's columns, drops incomplete rows and converts
// the rest into records keyed by every column name. Columns whose cells all
// parse as integers become int64, then float64, otherwise they stay strings.
func Ingest(t *Table) ([]features.Record, error) {
	if t == nil {
		return nil, fmt.Errorf("table is nil")
	}
	if err := checkUnique(t.Columns); err != nil {
		return nil, err
	}
	if err := ValidateColumns(t.Columns); err != nil {
		return nil, err
	}

	rows := Clean(t)
	kinds := make([]columnType, len(t.Columns))
	for j := range t.Columns {
		kinds[j] = inferColumn(rows, j)
	}

	records := make([]features.Record, len(rows))
	for i, row := range rows {
		r := make(features.Record, len(t.Columns))
		for j, name := range t.Columns {
			r[name] = convert(row[j], kinds[j])
		}
		records[i] = r
	}
	return records, nil
}

func checkUnique(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	return nil
}

type columnType int

const (
	textColumn columnType = iota
	intColumn
	floatColumn
)

// inferColumn widens from int to float to text as cells require
func inferColumn(rows [][]string, j int) columnType {
	if len(rows) == 0 {
		return textColumn
	}

	kind := intColumn
	for _, row := range rows {
		s := strings.TrimSpace(row[j])
		if kind == intColumn {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = floatColumn
		}
		// inf, Infinity and NAN parse but have no JSON form
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return textColumn
		}
	}
	return kind
}

func convert(cell string, kind columnType) any {
	s := strings.TrimSpace(cell)
	switch kind {
	case intColumn:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case floatColumn:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	default:
		return cell
	}
}
