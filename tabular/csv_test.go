package tabular

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a, b,c\n1,2,3\n4,,6\n"))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}

	if !reflect.DeepEqual(table.Columns, []string{"a", "b", "c"}) {
		t.Errorf("Columns = %v", table.Columns)
	}
	want := [][]string{{"1", "2", "3"}, {"4", "", "6"}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %v, want %v", table.Rows, want)
	}
}

func TestReadCSV_StripsBOM(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufeffgender,tenure\nMale,1\n"))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if table.Columns[0] != "gender" {
		t.Errorf("Columns[0] = %q, want gender", table.Columns[0])
	}
}

func TestReadCSV_QuotedLabels(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("payment_method,x\n\"Bank transfer (automatic)\",1\n\"a,b\",2\n"))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if table.Rows[0][0] != "Bank transfer (automatic)" || table.Rows[1][0] != "a,b" {
		t.Errorf("Rows = %v", table.Rows)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"ragged", "a,b\n1,2\n3\n"},
		{"bad quote", "a,b\n\"1,2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tc.text)); err == nil {
				t.Errorf("Expected error for %s input, got nil", tc.name)
			}
		})
	}
}

func TestReadDelimited_Semicolon(t *testing.T) {
	table, err := ReadDelimited(strings.NewReader("a;b\n1;2\n"), ';')
	if err != nil {
		t.Fatalf("ReadDelimited() failed: %v", err)
	}
	if len(table.Columns) != 2 || table.Rows[0][1] != "2" {
		t.Errorf("unexpected table: %+v", table)
	}
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	table, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile() failed: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Errorf("len(Rows) = %d, want 3", len(table.Rows))
	}

	if _, err := ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Expected error for absent file, got nil")
	}
}
