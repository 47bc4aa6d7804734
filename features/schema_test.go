package features

import (
	"reflect"
	"testing"
)

// TestFieldsOrder pins the training-time feature order
func TestFieldsOrder(t *testing.T) {
	want := []string{
		"gender", "senior_citizen", "partner", "dependents", "tenure",
		"phone_service", "multiple_lines", "internet_service",
		"online_security", "online_backup", "device_protection", "tech_support",
		"streaming_tv", "streaming_movies", "contract", "paperless_billing",
		"payment_method", "monthly_charges", "total_charges",
	}

	got := Fields()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	if Width() != 19 {
		t.Errorf("Width() = %d, want 19", Width())
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	names := Fields()
	names[0] = "mutated"

	if Fields()[0] != "gender" {
		t.Error("mutating the result of Fields() changed the schema")
	}

	s := Schema()
	s[0].Categories[0].Label = "mutated"
	if _, ok := Code("gender", "Male"); !ok {
		t.Error("mutating the result of Schema() changed the category table")
	}
}

func TestFieldKinds(t *testing.T) {
	testCases := []struct {
		field string
		kind  Kind
	}{
		{"gender", Categorical},
		{"senior_citizen", Integer},
		{"tenure", Integer},
		{"internet_service", Categorical},
		{"monthly_charges", Float},
		{"total_charges", Float},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			f, ok := Lookup(tc.field)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tc.field)
			}
			if f.Kind != tc.kind {
				t.Errorf("Kind = %s, want %s", f.Kind, tc.kind)
			}
		})
	}

	if _, ok := Lookup("customer_id"); ok {
		t.Error("Lookup should not find fields outside the schema")
	}
}

// TestCodeIsCaseSensitive verifies labels are matched exactly
func TestCodeIsCaseSensitive(t *testing.T) {
	if c, ok := Code("internet_service", "Fiber optic"); !ok || c != 2 {
		t.Errorf("Code(internet_service, Fiber optic) = %d, %v; want 2, true", c, ok)
	}

	for _, label := range []string{"fiber optic", "Fiber Optic", " DSL", "dsl", ""} {
		if _, ok := Code("internet_service", label); ok {
			t.Errorf("Code(internet_service, %q) should not match", label)
		}
	}

	if _, ok := Code("tenure", "5"); ok {
		t.Error("numeric fields have no codes")
	}
}

func TestLabels(t *testing.T) {
	want := []string{"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"}
	if got := Labels("payment_method"); !reflect.DeepEqual(got, want) {
		t.Errorf("Labels(payment_method) = %v, want %v", got, want)
	}
	if got := Labels("tenure"); got != nil {
		t.Errorf("Labels(tenure) = %v, want nil", got)
	}
}
