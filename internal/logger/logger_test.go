package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"WARNING", LevelWarning, false},
		{" error ", LevelError, false},
		{"trace", LevelTrace, false},
		{"verbose", LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	Debug("hidden")
	Info("model loaded", "path", "model.json")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at INFO level: %s", out)
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("output is not one JSON line: %v (%s)", err, out)
	}
	if line["msg"] != "model loaded" || line["path"] != "model.json" {
		t.Errorf("unexpected log line: %v", line)
	}
}

func TestCounters(t *testing.T) {
	SetOutput(&bytes.Buffer{})
	before := Snapshot()

	RecordRejected()
	RowsScored(3)
	HTTPStatus(400)
	HTTPStatus(503)
	HTTPStatus(200)

	after := Snapshot()
	if after.RejectedRecords-before.RejectedRecords != 1 {
		t.Errorf("RejectedRecords delta = %d, want 1", after.RejectedRecords-before.RejectedRecords)
	}
	if after.ScoredRows-before.ScoredRows != 3 {
		t.Errorf("ScoredRows delta = %d, want 3", after.ScoredRows-before.ScoredRows)
	}
	if after.Responses4xx-before.Responses4xx != 1 {
		t.Errorf("Responses4xx delta = %d, want 1", after.Responses4xx-before.Responses4xx)
	}
	if after.Responses5xx-before.Responses5xx != 1 {
		t.Errorf("Responses5xx delta = %d, want 1", after.Responses5xx-before.Responses5xx)
	}
}
