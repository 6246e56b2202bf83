package thermo

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/slighter12/sysprop-go/schema"
)

func rowsOf(t *testing.T, result any, key string) []*orderedmap.OrderedMap[string, any] {
	t.Helper()
	m, ok := result.(*orderedmap.OrderedMap[string, any])
	if !ok {
		t.Fatalf("expected ordered map, got %T", result)
	}
	raw, ok := m.Get(key)
	if !ok {
		t.Fatalf("missing %q", key)
	}
	var rows []*orderedmap.OrderedMap[string, any]
	for _, r := range raw.([]any) {
		rows = append(rows, r.(*orderedmap.OrderedMap[string, any]))
	}
	return rows
}

func TestIdealGasDensity(t *testing.T) {
	args, err := schema.Convert(idealGasSchema, schema.JSONPayload{
		"molar_mass":  "28.97",
		"temperature": map[string]any{"start": 273.15, "stop": 373.15, "count": 3},
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	result, err := IdealGasDensity(args)
	if err != nil {
		t.Fatalf("IdealGasDensity failed: %v", err)
	}
	rows := rowsOf(t, result, "densities")
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	density, _ := rows[0].Get("density")
	// Dry air at 0 °C and 1 atm is about 1.2922 kg/m³.
	if d := density.(float64); d < 1.29 || d > 1.295 {
		t.Errorf("Unexpected density %v", d)
	}
	last, _ := rows[2].Get("density")
	if last.(float64) >= density.(float64) {
		t.Error("Density should fall as temperature rises")
	}
}

func TestIdealGasDensityDefaultsPressure(t *testing.T) {
	args, err := schema.Convert(idealGasSchema, schema.JSONPayload{"molar_mass": 2.016, "temperature": 300.0})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if args.Float("pressure") != StandardPressure {
		t.Errorf("Expected default pressure, got %v", args.Float("pressure"))
	}
}

func TestVapourPressureWaterBoilingPoint(t *testing.T) {
	args, err := schema.Convert(vapourPressureSchema, schema.JSONPayload{"temperature": 373.15})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	result, err := VapourPressureWater(args)
	if err != nil {
		t.Fatalf("VapourPressureWater failed: %v", err)
	}
	rows := rowsOf(t, result, "values")
	p, _ := rows[0].Get("pressure")
	if got := p.(float64); got < 100000 || got > 102600 {
		t.Errorf("Expected about one atmosphere at 100 °C, got %v", got)
	}
}

func TestVapourPressureWaterRejectsIce(t *testing.T) {
	_, err := schema.Convert(vapourPressureSchema, schema.JSONPayload{"temperature": 250.0})
	if err == nil {
		t.Fatal("Expected validation error below the freezing point")
	}
}

func TestGetAllTools(t *testing.T) {
	for _, c := range GetAllTools() {
		if c.Handler == nil || c.Schema == nil || c.Summary == "" {
			t.Errorf("Incomplete candidate %q", c.Name)
		}
	}
}
