package features

// Record is a single inbound customer record keyed by field name.
// Values are strings, integers or floats; keys outside the schema are ignored.
type Record map[string]any

// Vector is the encoded, ordered numeric input for the model.
type Vector []float64

// Kind describes how a schema field is encoded
type Kind int

const (
	Categorical Kind = iota
	Integer
	Float
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Integer:
		return "int"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Category is a single label -> code pair of a categorical field
type Category struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

// Field is one position of the feature vector
type Field struct {
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	Categories []Category `json:"categories,omitempty"` // only for Categorical
}

var yesNo = []Category{{"Yes", 1}, {"No", 0}}

// schema is the training-time contract of the churn model.
// Position i of every encoded vector is schema[i]; reordering this table
// silently corrupts predictions of an already trained model.
var schema = []Field{
	{Name: "gender", Kind: Categorical, Categories: []Category{{"Male", 1}, {"Female", 0}}},
	{Name: "senior_citizen", Kind: Integer},
	{Name: "partner", Kind: Categorical, Categories: yesNo},
	{Name: "dependents", Kind: Categorical, Categories: yesNo},
	{Name: "tenure", Kind: Integer},
	{Name: "phone_service", Kind: Categorical, Categories: yesNo},
	{Name: "multiple_lines", Kind: Categorical, Categories: yesNo},
	{Name: "internet_service", Kind: Categorical, Categories: []Category{
		{"Fiber optic", 2}, {"DSL", 1}, {"No", 0},
	}},
	{Name: "online_security", Kind: Categorical, Categories: yesNo},
	{Name: "online_backup", Kind: Categorical, Categories: yesNo},
	{Name: "device_protection", Kind: Categorical, Categories: yesNo},
	{Name: "tech_support", Kind: Categorical, Categories: yesNo},
	{Name: "streaming_tv", Kind: Categorical, Categories: yesNo},
	{Name: "streaming_movies", Kind: Categorical, Categories: yesNo},
	{Name: "contract", Kind: Categorical, Categories: []Category{
		{"Month-to-month", 0}, {"One year", 1}, {"Two year", 2},
	}},
	{Name: "paperless_billing", Kind: Categorical, Categories: yesNo},
	{Name: "payment_method", Kind: Categorical, Categories: []Category{
		{"Electronic check", 0},
		{"Mailed check", 1},
		{"Bank transfer (automatic)", 2},
		{"Credit card (automatic)", 3},
	}},
	{Name: "monthly_charges", Kind: Float},
	{Name: "total_charges", Kind: Float},
}

// codes is the label lookup derived from schema at init. Read-only afterwards.
var codes = func() map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, f := range schema {
		if f.Kind != Categorical {
			continue
		}
		m := make(map[string]int, len(f.Categories))
		for _, c := range f.Categories {
			m[c.Label] = c.Code
		}
		out[f.Name] = m
	}
	return out
}()

// Fields returns the required field names in feature vector order
func Fields() []string {
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	return names
}

// Schema returns a copy of the full field table
func Schema() []Field {
	out := make([]Field, len(schema))
	for i, f := range schema {
		out[i] = f
		if f.Categories != nil {
			out[i].Categories = append([]Category(nil), f.Categories...)
		}
	}
	return out
}

// Width is the length of every encoded vector
func Width() int {
	return len(schema)
}

// Lookup returns the field definition by name
func Lookup(name string) (Field, bool) {
	for _, f := range schema {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Code returns the exact-match code of label for a categorical field
func Code(field, label string) (int, bool) {
	m, ok := codes[field]
	if !ok {
		return 0, false
	}
	c, ok := m[label]
	return c, ok
}

// Labels returns the accepted labels of a categorical field, in table order
func Labels(field string) []string {
	f, ok := Lookup(field)
	if !ok || f.Kind != Categorical {
		return nil
	}
	labels := make([]string, len(f.Categories))
	for i, c := range f.Categories {
		labels[i] = c.Label
	}
	return labels
}
