// Package units converts between temperature scales.
package units

import (
	"errors"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/schema"
)

var ErrBelowAbsoluteZero = errors.New("temperature below absolute zero")

var scales = []any{"K", "C", "F"}

var convertSchema = schema.MustNew(
	schema.RangeableFloat("value", schema.Required()),
	schema.String("from", schema.Required(), schema.AnyOf(scales...)).WithLabel("From scale"),
	schema.String("to", schema.Required(), schema.AnyOf(scales...)).WithLabel("To scale"),
	schema.Integer("round", schema.Optional(), schema.Between(0, 12)).WithLabel("Decimal places"),
	schema.Boolean("include_input").WithLabel("Include input values"),
)

func toKelvin(v float64, scale string) float64 {
	switch scale {
	case "C":
		return v + 273.15
	case "F":
		return (v-32)*5/9 + 273.15
	}
	return v
}

func fromKelvin(k float64, scale string) float64 {
	switch scale {
	case "C":
		return k - 273.15
	case "F":
		return (k-273.15)*9/5 + 32
	}
	return k
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ConvertTemperature converts each value between scales. Values below
// absolute zero fail the call.
func ConvertTemperature(args schema.Args) (any, error) {
	from, to := args.String("from"), args.String("to")
	values := args.Floats("value")

	out := make([]any, 0, len(values))
	for _, v := range values {
		k := toKelvin(v, from)
		if k < 0 {
			return nil, fmt.Errorf("%w: %g %s", ErrBelowAbsoluteZero, v, from)
		}
		converted := fromKelvin(k, to)
		if args.Has("round") {
			converted = roundTo(converted, args.Int("round"))
		}
		if !args.Bool("include_input") {
			out = append(out, converted)
			continue
		}
		row := orderedmap.New[string, any]()
		row.Set("input", v)
		row.Set("output", converted)
		out = append(out, row)
	}
	return out, nil
}

func GetAllTools() []registry.Candidate {
	return []registry.Candidate{
		{
			Name:    "temperature_convert",
			Summary: "Temperature conversion",
			Detail:  "Converts temperatures between kelvin (`K`), Celsius (`C`) and Fahrenheit (`F`).",
			Handler: ConvertTemperature,
			Schema:  convertSchema,
		},
	}
}
