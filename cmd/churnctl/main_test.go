package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liamcoop/churn/features"
	"github.com/liamcoop/churn/inference"
	"github.com/urfave/cli/v2"
)

const header = "customer_id,gender,senior_citizen,partner,dependents,tenure,phone_service,multiple_lines," +
	"internet_service,online_security,online_backup,device_protection,tech_support,streaming_tv," +
	"streaming_movies,contract,paperless_billing,payment_method,monthly_charges,total_charges"

const customersCSV = header + "\n" +
	"7590-VHVEG,Female,0,Yes,No,0,No,No,DSL,No,Yes,No,No,No,No,Month-to-month,Yes,Electronic check,29.85,29.85\n" +
	"5575-GNVDE,Male,0,No,No,34,Yes,No,DSL,Yes,No,Yes,No,No,No,One year,No,Mailed check,56.95,1889.5\n" +
	"3668-QPYBK,Male,0,No,No,2,Yes,NA,DSL,Yes,Yes,No,No,No,No,Month-to-month,Yes,Mailed check,53.85,108.15\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func writeModel(t *testing.T) string {
	t.Helper()
	weights := make([]float64, features.Width())
	weights[4] = -1
	data, _ := json.Marshal(map[string]any{"feature_names": features.Fields(), "weights": weights, "bias": 2})
	return writeFile(t, "model.json", string(data))
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"churnctl"}, args...))
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := runApp(t, "schema")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != features.Width() {
		t.Fatalf("schema printed %d lines, want %d", len(lines), features.Width())
	}
	if !strings.Contains(lines[7], "internet_service") || !strings.Contains(lines[7], "Fiber optic=2") {
		t.Errorf("line 7 = %q", lines[7])
	}

	out, err = runApp(t, "schema", "--json")
	if err != nil {
		t.Fatalf("schema --json failed: %v", err)
	}
	var fields []map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("schema --json is not JSON: %v", err)
	}
	if fields[4]["name"] != "tenure" || fields[4]["kind"] != "int" {
		t.Errorf("fields[4] = %v", fields[4])
	}
}

func TestIngestCommand(t *testing.T) {
	out, err := runApp(t, "ingest", "--input", writeFile(t, "customers.csv", customersCSV))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("ingest output is not JSON: %v", err)
	}
	// the NA row is dropped
	if len(records) != 2 || records[1]["customer_id"] != "5575-GNVDE" {
		t.Errorf("unexpected records: %v", records)
	}

	tsv := writeFile(t, "customers.tsv", strings.ReplaceAll(customersCSV, ",", "\t"))
	if _, err := runApp(t, "ingest", "--input", tsv, "--delimiter", `\t`); err != nil {
		t.Errorf("ingest of tab separated file failed: %v", err)
	}

	if _, err := runApp(t, "ingest", "--input", tsv, "--delimiter", "||"); err == nil {
		t.Error("Expected error for multi-character delimiter, got nil")
	}
}

func TestScoreCommand(t *testing.T) {
	out, err := runApp(t, "score", "--model", writeModel(t), "--input", writeFile(t, "customers.csv", customersCSV))
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	var result inference.BatchResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("score output is not JSON: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("len(predictions) = %d, want 2", len(result.Items))
	}
	if result.Items[0].ChurnPrediction != 1 || result.Items[1].ChurnPrediction != 0 {
		t.Errorf("unexpected predictions: %+v", result.Items)
	}
}

func TestScoreCommand_RejectsBatch(t *testing.T) {
	bad := strings.Replace(customersCSV, "One year", "Ten year", 1)
	_, err := runApp(t, "score", "--model", writeModel(t), "--input", writeFile(t, "customers.csv", bad))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if kind, _ := features.KindOf(err); kind != features.UnknownCategory {
		t.Errorf("kind = %q, want %q (err: %v)", kind, features.UnknownCategory, err)
	}

	_, err = runApp(t, "score", "--input", "x.csv")
	if err == nil && os.Getenv("MODEL_PATH") == "" {
		t.Error("Expected error for missing --model, got nil")
	}
}

func TestValidateCommand(t *testing.T) {
	records := `[
		{"gender": "Female", "senior_citizen": 0, "partner": "Yes", "dependents": "No", "tenure": 5,
		 "phone_service": "Yes", "multiple_lines": "No", "internet_service": "DSL", "online_security": "No",
		 "online_backup": "Yes", "device_protection": "No", "tech_support": "No", "streaming_tv": "No",
		 "streaming_movies": "No", "contract": "Month-to-month", "paperless_billing": "Yes",
		 "payment_method": "Electronic check", "monthly_charges": 70.5, "total_charges": 350.25},
		{"gender": "Female"}
	]`

	out, err := runApp(t, "validate", "--input", writeFile(t, "records.json", records))
	if err == nil {
		t.Fatal("Expected error for invalid record, got nil")
	}
	exitErr, ok := err.(cli.ExitCoder)
	if !ok || exitErr.ExitCode() != 1 {
		t.Errorf("err = %v, want exit code 1", err)
	}
	if !strings.Contains(out, "record 1: schema_missing_field") || strings.Contains(out, "record 0") {
		t.Errorf("unexpected report:\n%s", out)
	}

	out, err = runApp(t, "validate", "--input", writeFile(t, "customers.csv", customersCSV))
	if err != nil {
		t.Fatalf("validate of clean CSV failed: %v", err)
	}
	if !strings.Contains(out, "2 records valid") {
		t.Errorf("output = %q", out)
	}
}
