package inference

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresPredictionStore implements PredictionStore backed by PostgreSQL
type PostgresPredictionStore struct {
	db *sql.DB
}

// NewPostgresPredictionStore creates a PostgreSQL-backed PredictionStore
func NewPostgresPredictionStore(db *sql.DB) *PostgresPredictionStore {
	return &PostgresPredictionStore{db: db}
}

// Add inserts a new entry
func (s *PostgresPredictionStore) Add(entry *PredictionLog) error {
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction items: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO prediction_logs (request_id, source, records, positives, items, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.RequestID, string(entry.Source), entry.Records, entry.Positives, string(items),
		float64(entry.Duration)/float64(time.Millisecond), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction log: %w", err)
	}

	return nil
}

// Get retrieves an entry by request ID
func (s *PostgresPredictionStore) Get(requestID string) (*PredictionLog, error) {
	row := s.db.QueryRow(`
		SELECT request_id, source, records, positives, items, duration_ms, created_at
		FROM prediction_logs
		WHERE request_id = $1
	`, requestID)

	entry, err := scanPredictionLog(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", requestID, ErrPredictionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction log: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns every entry.
func (s *PostgresPredictionStore) List(limit int) ([]*PredictionLog, error) {
	query := `
		SELECT request_id, source, records, positives, items, duration_ms, created_at
		FROM prediction_logs
		ORDER BY created_at DESC, request_id ASC
	`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT $1", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction logs: %w", err)
	}
	defer rows.Close()

	var entries []*PredictionLog
	for rows.Next() {
		entry, err := scanPredictionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction logs: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPredictionLog(sc scanner) (*PredictionLog, error) {
	var (
		entry      PredictionLog
		source     string
		items      []byte
		durationMs float64
	)
	if err := sc.Scan(&entry.RequestID, &source, &entry.Records, &entry.Positives,
		&items, &durationMs, &entry.CreatedAt); err != nil {
		return nil, err
	}

	entry.Source = Source(source)
	entry.Duration = time.Duration(durationMs * float64(time.Millisecond))
	if err := json.Unmarshal(items, &entry.Items); err != nil {
		return nil, fmt.Errorf("invalid items for %s: %w", entry.RequestID, err)
	}
	return &entry, nil
}
