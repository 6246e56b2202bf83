package schema

import "fmt"

const msgNotEqual = "Field must be equal to %s."

// Convert validates payload against s and returns the converted arguments.
// On failure the error is a *ValidationError listing every failing field in
// schema order; unknown payload keys are ignored.
func Convert(s *Schema, payload Payload) (Args, error) {
	fields := s.Fields()
	results := make([]fieldResult, len(fields))
	for i, field := range fields {
		results[i] = validateField(field, payload.Resolve(field))
	}

	// Cross-field comparisons need every field converted first.
	for i, field := range fields {
		if results[i].failed || !results[i].present {
			continue
		}
		for _, v := range field.Validators {
			if v.Kind != ValidatorEqualTo {
				continue
			}
			j := s.index[v.Other]
			if results[j].failed {
				break
			}
			if !equalValues(results[i].value, results[j].value) {
				other := fields[j].DisplayLabel()
				results[i].fail(field.Name, v.message(fmt.Sprintf(msgNotEqual, other)), nil)
				break
			}
		}
	}

	var verr ValidationError
	args := make(Args, len(fields))
	for i, field := range fields {
		if results[i].failed {
			verr.Fields = append(verr.Fields, results[i].errs...)
			continue
		}
		args[field.Name] = results[i].value
	}
	if len(verr.Fields) > 0 {
		return nil, &verr
	}
	return args, nil
}
