package tools

import (
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/tools/molecular"
	"github.com/slighter12/sysprop-go/tools/template"
	"github.com/slighter12/sysprop-go/tools/thermo"
	"github.com/slighter12/sysprop-go/tools/units"
)

// Candidates returns every tool compiled into the binary, in catalogue order.
func Candidates() []registry.Candidate {
	var all []registry.Candidate
	all = append(all, thermo.GetAllTools()...)
	all = append(all, units.GetAllTools()...)
	all = append(all, molecular.GetAllTools()...)
	all = append(all, template.GetAllTools()...)
	return all
}
