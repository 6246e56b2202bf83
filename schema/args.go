package schema

// Args maps field names to converted native values: bool, int, float64,
// string, Structured, or []float64 for rangeable fields. Absent fields
// without a default map to nil.
type Args map[string]any

// Has reports whether name holds a non-nil value.
func (a Args) Has(name string) bool {
	return a[name] != nil
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case []float64:
		if len(v) > 0 {
			return v[0]
		}
	}
	return 0
}

// Floats returns the samples of a rangeable field. A plain float is
// returned as a one-element slice.
func (a Args) Floats(name string) []float64 {
	switch v := a[name].(type) {
	case []float64:
		return v
	case float64:
		return []float64{v}
	case int:
		return []float64{float64(v)}
	}
	return nil
}

func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return v
	case Structured:
		return v.CanonicalString()
	}
	return ""
}

func (a Args) Structured(name string) Structured {
	v, _ := a[name].(Structured)
	return v
}
