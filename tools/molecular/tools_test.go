package molecular

import (
	"errors"
	"testing"

	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
)

func TestMoleculeSummaryRendersCanonicalText(t *testing.T) {
	args, err := schema.Convert(summarySchema, schema.JSONPayload{"smiles": " CCO "})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	result, err := MoleculeSummary(args)
	if err != nil {
		t.Fatalf("MoleculeSummary failed: %v", err)
	}

	body, err := render.JSON{}.Encode(result)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"molecule":"CCO","heavy_atoms":3,"elements":{"C":2,"O":1}}`
	if string(body) != want {
		t.Errorf("Expected %s, got %s", want, body)
	}
}

func TestMoleculeSummaryRejectsBadSMILES(t *testing.T) {
	_, err := schema.Convert(summarySchema, schema.JSONPayload{"smiles": "C(C"})
	verr, ok := errors.AsType[*schema.ValidationError](err)
	if !ok {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !verr.Has("smiles") {
		t.Errorf("Expected smiles to fail, got %v", verr.ByField())
	}
}
