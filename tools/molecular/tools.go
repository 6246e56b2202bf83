// Package molecular exposes tools over SMILES structures.
package molecular

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/slighter12/sysprop-go/molecule"
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/schema"
)

// ParseSMILES adapts molecule.Parse to a structured field parser.
func ParseSMILES(raw string) (schema.Structured, error) {
	m, err := molecule.Parse(raw)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var summarySchema = schema.MustNew(
	schema.StructuredField("smiles", ParseSMILES, schema.Required(), schema.Length(1, 500)).
		WithLabel("SMILES"),
)

// MoleculeSummary counts the atoms written in a SMILES string.
func MoleculeSummary(args schema.Args) (any, error) {
	m := args.Structured("smiles").(*molecule.Molecule)
	order, counts := m.Elements()

	elements := orderedmap.New[string, any]()
	for _, sym := range order {
		elements.Set(sym, counts[sym])
	}

	out := orderedmap.New[string, any]()
	out.Set("molecule", m)
	out.Set("heavy_atoms", m.HeavyAtoms())
	out.Set("elements", elements)
	return out, nil
}

func GetAllTools() []registry.Candidate {
	return []registry.Candidate{
		{
			Name:    "molecule_summary",
			Summary: "Molecule summary",
			Detail: "Counts the atoms written explicitly in a SMILES string.\n\n" +
				"Implicit hydrogens are not included.",
			Handler: MoleculeSummary,
			Schema:  summarySchema,
		},
	}
}
