package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	msgRequired     = "This field is required."
	msgInvalidFloat = "Not a valid float value."
	msgInvalidInt   = "Not a valid integer value."
	msgInvalidBool  = "Not a valid boolean value."
	msgInvalidText  = "Not a valid string value."
	msgInvalidRange = "Starting value must be less than ending value."
	msgStopRequired = "An ending value is required when count is greater than 1."
	msgStartMissing = "A starting value is required."
)

// fieldResult is the outcome of validating one field in the first pass.
type fieldResult struct {
	value   any
	present bool
	failed  bool
	errs    []FieldError
}

func (r *fieldResult) fail(field, msg string, cause error) {
	r.failed = true
	r.errs = append(r.errs, FieldError{Field: field, Message: msg, Err: cause})
}

// validateField runs presence handling, coercion and the ordered value
// validators for a single field.
func validateField(field FieldSpec, fv FieldValue) fieldResult {
	res := fieldResult{present: fv.Present}

	if !fv.Present {
		for _, v := range field.Validators {
			if v.Kind == ValidatorRequired {
				res.fail(field.Name, v.message(msgRequired), nil)
				return res
			}
			if v.Kind == ValidatorOptional {
				break
			}
		}
		res.value = absentValue(field)
		return res
	}

	if field.Kind == KindRangeableFloat {
		return validateRangeable(field, fv)
	}

	value, msg, cause := coerce(field, fv.Scalar)
	if msg != "" {
		res.fail(field.Name, msg, cause)
		return res
	}
	if msg := runValidators(field, value); msg != "" {
		res.fail(field.Name, msg, nil)
		return res
	}
	res.value = value
	return res
}

func validateRangeable(field FieldSpec, fv FieldValue) fieldResult {
	res := fieldResult{present: true}

	if fv.Range == nil {
		start, ok := toFloat(fv.Scalar)
		if !ok {
			res.fail(field.Name, msgInvalidFloat, nil)
			return res
		}
		if msg := runValidators(field, start); msg != "" {
			res.fail(field.Name, msg, nil)
			return res
		}
		res.value = []float64{start}
		return res
	}

	if fv.Range.Start == nil {
		res.fail(field.Name, msgStartMissing, nil)
		return res
	}
	start, ok := toFloat(fv.Range.Start)
	if !ok {
		res.fail(field.Name, msgInvalidFloat, nil)
		return res
	}

	count := 1
	if fv.Range.Count != nil {
		n, ok := toInt(fv.Range.Count)
		if !ok {
			res.fail(field.Name, msgInvalidInt, nil)
			return res
		}
		count = n
	}
	if limit := field.maxCount(); count < 1 || count > limit {
		res.fail(field.Name, fmt.Sprintf("Count must be between 1 and %d.", limit), ErrInvalidCount)
		return res
	}

	if msg := runValidators(field, start); msg != "" {
		res.fail(field.Name, msg, nil)
		return res
	}

	spec := RangeSpec{Start: start, Stop: start, Count: count}
	if count > 1 {
		if fv.Range.Stop == nil {
			res.fail(field.Name, msgStopRequired, nil)
			return res
		}
		stop, ok := toFloat(fv.Range.Stop)
		if !ok {
			res.fail(field.Name, msgInvalidFloat, nil)
			return res
		}
		if msg := runValidators(field, stop); msg != "" {
			res.fail(field.Name, msg, nil)
			return res
		}
		spec.Stop = stop
	}

	samples, err := Expand(spec)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrInvalidRange) {
			msg = msgInvalidRange
		}
		res.fail(field.Name, msg, err)
		return res
	}
	res.value = samples
	return res
}

// runValidators applies value validators in declaration order and returns
// the first failure message.
func runValidators(field FieldSpec, value any) string {
	for _, v := range field.Validators {
		switch v.Kind {
		case ValidatorRequired, ValidatorOptional, ValidatorEqualTo:
			continue
		}
		if msg := v.check(value); msg != "" {
			return msg
		}
	}
	return ""
}

func absentValue(field FieldSpec) any {
	if field.Default != nil {
		if field.Kind == KindRangeableFloat {
			if f, ok := toFloat(field.Default); ok {
				return []float64{f}
			}
		}
		return field.Default
	}
	if field.Kind == KindBoolean {
		return false
	}
	return nil
}

// coerce converts a present raw scalar to the field's native kind. A non-empty
// message reports a type error.
func coerce(field FieldSpec, raw any) (any, string, error) {
	switch field.Kind {
	case KindBoolean:
		b, ok := toBool(raw)
		if !ok {
			return nil, msgInvalidBool, nil
		}
		return b, "", nil
	case KindInteger:
		n, ok := toInt(raw)
		if !ok {
			return nil, msgInvalidInt, nil
		}
		return n, "", nil
	case KindFloat:
		f, ok := toFloat(raw)
		if !ok {
			return nil, msgInvalidFloat, nil
		}
		return f, "", nil
	case KindString:
		s, ok := toText(raw)
		if !ok {
			return nil, msgInvalidText, nil
		}
		return s, "", nil
	case KindStructured:
		s, ok := toText(raw)
		if !ok {
			return nil, msgInvalidText, nil
		}
		value, err := field.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, structuredMessage(err), err
		}
		return value, "", nil
	}
	return nil, fmt.Sprintf("Unsupported field kind %q.", field.Kind), nil
}

func structuredMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Not a valid value."
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

func toFloat(raw any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		return isTruthy(v), true
	case json.Number:
		f, err := v.Float64()
		return f != 0, err == nil
	}
	return false, false
}

func toText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}
