// Package template is the starting point for new tools. Copy it into a new
// package, rename the tool and add the package to tools.Candidates. The
// registry never exposes a tool named "template".
package template

import (
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/schema"
)

var exampleSchema = schema.MustNew(
	schema.Float("value", schema.Required()),
)

// Example returns its input unchanged.
func Example(args schema.Args) (any, error) {
	return map[string]any{"value": args.Float("value")}, nil
}

func GetAllTools() []registry.Candidate {
	return []registry.Candidate{
		{
			Name:    registry.ReservedName,
			Summary: "Template tool",
			Detail:  "Scaffold for new tools.",
			Handler: Example,
			Schema:  exampleSchema,
		},
	}
}
