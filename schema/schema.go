// Package schema describes tool call signatures and converts raw request
// payloads into typed argument sets.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the native value kind a field converts to.
type Kind string

const (
	KindBoolean        Kind = "boolean"
	KindInteger        Kind = "integer"
	KindFloat          Kind = "float"
	KindString         Kind = "string"
	KindStructured     Kind = "structured"
	KindRangeableFloat Kind = "rangeable_float"
)

// DefaultMaxCount bounds the number of samples a rangeable field may request.
const DefaultMaxCount = 1000

// Structured is an opaque value with a canonical textual form.
type Structured interface {
	CanonicalString() string
}

// ParseFunc converts the raw text of a structured field into its value.
type ParseFunc func(raw string) (Structured, error)

// FieldSpec describes one named parameter.
type FieldSpec struct {
	Name       string
	Label      string
	Kind       Kind
	Validators []Validator
	Default    any
	Parse      ParseFunc
	MaxCount   int
}

// WithDefault returns a copy of the field using value when the field is absent.
func (f FieldSpec) WithDefault(value any) FieldSpec {
	f.Default = value
	return f
}

// WithLabel returns a copy of the field with a display label.
func (f FieldSpec) WithLabel(label string) FieldSpec {
	f.Label = label
	return f
}

// WithMaxCount returns a copy of the field with a different sample ceiling.
func (f FieldSpec) WithMaxCount(n int) FieldSpec {
	f.MaxCount = n
	return f
}

// DisplayLabel returns the label, falling back to a humanized name.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	words := strings.Split(f.Name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Has reports whether the field carries a validator of the given kind.
func (f FieldSpec) Has(kind ValidatorKind) bool {
	for _, v := range f.Validators {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func (f FieldSpec) maxCount() int {
	if f.MaxCount > 0 {
		return f.MaxCount
	}
	return DefaultMaxCount
}

func Boolean(name string, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindBoolean, Validators: validators}
}

func Integer(name string, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInteger, Validators: validators}
}

func Float(name string, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindFloat, Validators: validators}
}

func String(name string, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindString, Validators: validators}
}

// StructuredField declares a field whose raw text is handed to parse.
func StructuredField(name string, parse ParseFunc, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindStructured, Validators: validators, Parse: parse}
}

// RangeableFloat declares a float field that also accepts a {start, stop, count} range.
func RangeableFloat(name string, validators ...Validator) FieldSpec {
	return FieldSpec{Name: name, Kind: KindRangeableFloat, Validators: validators}
}

// Schema is an ordered list of uniquely named fields.
type Schema struct {
	fields []FieldSpec
	index  map[string]int
}

var ErrInvalidSchema = errors.New("invalid schema")

// New builds a schema, rejecting duplicate names and dangling EqualTo targets.
func New(fields ...FieldSpec) (*Schema, error) {
	s := &Schema{
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: field name cannot be empty", ErrInvalidSchema)
		}
		if _, exists := s.index[name]; exists {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
		}
		if f.Kind == KindStructured && f.Parse == nil {
			return nil, fmt.Errorf("%w: structured field %q has no parser", ErrInvalidSchema, name)
		}
		f.Name = name
		f.Validators = append([]Validator(nil), f.Validators...)
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	for _, f := range s.fields {
		for _, v := range f.Validators {
			if v.Kind != ValidatorEqualTo {
				continue
			}
			if _, ok := s.index[v.Other]; !ok || v.Other == f.Name {
				return nil, fmt.Errorf("%w: field %q compares against unknown field %q", ErrInvalidSchema, f.Name, v.Other)
			}
		}
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for static tool declarations.
func MustNew(fields ...FieldSpec) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []FieldSpec {
	if s == nil {
		return nil
	}
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// Field looks up one field by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}
