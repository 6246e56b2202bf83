package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Source identifies how a payload was encoded on the wire.
type Source string

const (
	SourceForm Source = "form"
	SourceJSON Source = "json"
)

// Suffixes of the sub-fields a form uses to submit a rangeable field.
const (
	RangeFlagSuffix  = "-range"
	RangeStartSuffix = "-start"
	RangeStopSuffix  = "-stop"
	RangeCountSuffix = "-count"
)

// RangeInput holds the raw, unconverted parts of a range encoding.
type RangeInput struct {
	Start any
	Stop  any
	Count any
}

// FieldValue is the raw value of one field: absent, a scalar, or a range.
type FieldValue struct {
	Present bool
	Scalar  any
	Range   *RangeInput
}

// Payload resolves raw field values from one wire encoding.
type Payload interface {
	Source() Source
	Resolve(field FieldSpec) FieldValue
}

// FormPayload is a URL-encoded (or multipart) form body. All values are strings.
type FormPayload url.Values

func (p FormPayload) Source() Source { return SourceForm }

// Values exposes the submitted values, e.g. to re-populate a form.
func (p FormPayload) Values() url.Values { return url.Values(p) }

func (p FormPayload) get(key string) (string, bool) {
	values, ok := p[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (p FormPayload) Resolve(field FieldSpec) FieldValue {
	if field.Kind == KindRangeableFloat {
		if fv, ok := p.resolveRange(field.Name); ok {
			return fv
		}
	}
	raw, ok := p.get(field.Name)
	if !ok {
		return FieldValue{}
	}
	if field.Kind == KindBoolean {
		return FieldValue{Present: true, Scalar: raw}
	}
	return FieldValue{Present: !isBlank(raw), Scalar: raw}
}

func (p FormPayload) resolveRange(name string) (FieldValue, bool) {
	flag, hasFlag := p.get(name + RangeFlagSuffix)
	start, hasStart := p.get(name + RangeStartSuffix)
	stop, hasStop := p.get(name + RangeStopSuffix)
	count, hasCount := p.get(name + RangeCountSuffix)
	if !hasFlag && !hasStart && !hasStop && !hasCount {
		return FieldValue{}, false
	}

	count = strings.TrimSpace(count)
	rangeMode := (hasFlag && isTruthy(flag)) || (count != "" && count != "1")
	if !rangeMode {
		// Single-value mode: only the start input carries data.
		return FieldValue{Present: !isBlank(start), Scalar: start}, true
	}

	in := &RangeInput{Start: nilIfBlank(start)}
	if hasStop {
		in.Stop = nilIfBlank(stop)
	}
	if hasCount {
		in.Count = nilIfBlank(count)
	}
	return FieldValue{Present: in.Start != nil, Range: in}, true
}

// JSONPayload is a decoded JSON object. Numbers are json.Number.
type JSONPayload map[string]any

func (p JSONPayload) Source() Source { return SourceJSON }

func (p JSONPayload) Resolve(field FieldSpec) FieldValue {
	raw, ok := p[field.Name]
	if !ok || raw == nil {
		return FieldValue{}
	}
	if field.Kind == KindRangeableFloat {
		if obj, ok := raw.(map[string]any); ok {
			in := &RangeInput{Start: obj["start"], Stop: obj["stop"], Count: obj["count"]}
			if s, ok := in.Start.(string); ok && isBlank(s) {
				in.Start = nil
			}
			// An object under the key is a submitted value even without a start.
			return FieldValue{Present: true, Range: in}
		}
	}
	if s, ok := raw.(string); ok && isBlank(s) {
		return FieldValue{}
	}
	return FieldValue{Present: true, Scalar: raw}
}

var ErrNotObject = errors.New("payload must be a JSON object")

// DecodeJSON parses data as a single JSON object, preserving number text.
func DecodeJSON(data []byte) (JSONPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json payload: unexpected data after top-level value")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return JSONPayload(obj), nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func nilIfBlank(s string) any {
	if isBlank(s) {
		return nil
	}
	return s
}

var falseValues = map[string]struct{}{
	"":      {},
	"false": {},
	"0":     {},
	"off":   {},
	"no":    {},
	"n":     {},
}

func isTruthy(s string) bool {
	_, falsy := falseValues[strings.ToLower(strings.TrimSpace(s))]
	return !falsy
}
