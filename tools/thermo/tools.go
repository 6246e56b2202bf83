// Package thermo holds simple thermodynamic property tools.
package thermo

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/schema"
)

// GasConstant is the molar gas constant in J/(mol·K).
const GasConstant = 8.314462618

// StandardPressure is one atmosphere in Pa.
const StandardPressure = 101325.0

const mmHgToPa = 133.322368

var idealGasSchema = schema.MustNew(
	schema.Float("molar_mass", schema.Required(), schema.AtLeast(0)).
		WithLabel("Molar mass (g/mol)"),
	schema.Float("pressure", schema.Optional(), schema.AtLeast(0)).
		WithLabel("Pressure (Pa)").
		WithDefault(StandardPressure),
	schema.RangeableFloat("temperature", schema.Required(), schema.Between(100, 1000)).
		WithLabel("Temperature (K)"),
)

// IdealGasDensity returns ρ = pM/(RT) for every requested temperature.
func IdealGasDensity(args schema.Args) (any, error) {
	molarMass := args.Float("molar_mass") / 1000 // kg/mol
	pressure := args.Float("pressure")

	rows := make([]any, 0, len(args.Floats("temperature")))
	for _, t := range args.Floats("temperature") {
		row := orderedmap.New[string, any]()
		row.Set("temperature", t)
		row.Set("density", pressure*molarMass/(GasConstant*t))
		rows = append(rows, row)
	}

	out := orderedmap.New[string, any]()
	out.Set("pressure", pressure)
	out.Set("molar_mass", args.Float("molar_mass"))
	out.Set("densities", rows)
	return out, nil
}

// antoine holds water coefficients for log10(P/mmHg) = A - B/(C + T/°C).
type antoine struct {
	maxCelsius float64
	a, b, c    float64
}

var waterAntoine = []antoine{
	{maxCelsius: 100, a: 8.07131, b: 1730.63, c: 233.426},
	{maxCelsius: 374, a: 8.14019, b: 1810.94, c: 244.485},
}

var vapourPressureSchema = schema.MustNew(
	schema.RangeableFloat("temperature", schema.Required(), schema.Between(274.15, 647.15)).
		WithLabel("Temperature (K)"),
)

// VapourPressureWater evaluates the Antoine equation for water, in Pa.
func VapourPressureWater(args schema.Args) (any, error) {
	temps := args.Floats("temperature")
	rows := make([]any, 0, len(temps))
	for _, t := range temps {
		celsius := t - 273.15
		coeff := waterAntoine[len(waterAntoine)-1]
		for _, c := range waterAntoine {
			if celsius <= c.maxCelsius {
				coeff = c
				break
			}
		}
		mmHg := math.Pow(10, coeff.a-coeff.b/(coeff.c+celsius))

		row := orderedmap.New[string, any]()
		row.Set("temperature", t)
		row.Set("pressure", mmHg*mmHgToPa)
		rows = append(rows, row)
	}

	out := orderedmap.New[string, any]()
	out.Set("unit", "Pa")
	out.Set("values", rows)
	return out, nil
}

func GetAllTools() []registry.Candidate {
	return []registry.Candidate{
		{
			Name:    "ideal_gas_density",
			Summary: "Ideal gas density",
			Detail: "Density of an ideal gas, `rho = p * M / (R * T)`.\n\n" +
				"*temperature* accepts a single value or a range of temperatures in kelvin.",
			Handler: IdealGasDensity,
			Schema:  idealGasSchema,
		},
		{
			Name:    "vapour_pressure_water",
			Summary: "Vapour pressure of water",
			Detail: "Saturation vapour pressure of pure water from the **Antoine equation**, " +
				"using separate coefficient sets below and above 100 °C.",
			Handler: VapourPressureWater,
			Schema:  vapourPressureSchema,
		},
	}
}
