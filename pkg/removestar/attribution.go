package removestar

import (
	"slices"
	"sort"

	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

// Attributed pairs a star-imported module with the names attributed to it.
// An empty Names list means the star import is unused and will be removed.
type Attributed struct {
	Module string   `json:"module"`
	Names  []string `json:"names"`
}

// Attribution lists every star-imported module in first-import order.
type Attribution []Attributed

// Lookup returns the names attributed to module.
func (a Attribution) Lookup(module string) ([]string, bool) {
	for _, entry := range a {
		if entry.Module == module {
			return entry.Names, true
		}
	}

	return nil, false
}

// Count returns the total number of attributed names.
func (a Attribution) Count() int {
	total := 0
	for _, entry := range a {
		total += len(entry.Names)
	}

	return total
}

// Attribute assigns every usage to exactly one of its candidate modules.
// exports must hold the export set of every module in modules. Names no
// candidate exports are reported as unresolved; names several candidates
// export go to the last one in import order and are reported as ambiguous.
func Attribute(filename string, modules []string, usages []pyscope.Usage, exports map[string]NameSet) (Attribution, []Diagnostic) {
	attributed := make(map[string][]string, len(modules))

	var diags []Diagnostic

	for _, usage := range usages {
		var found []string

		for _, module := range usage.Modules {
			if exports[module].Has(usage.Name) {
				found = append(found, module)
			}
		}

		switch len(found) {
		case 0:
			diags = append(diags, unresolvedDiagnostic(filename, usage))

			continue
		case 1:
		default:
			diags = append(diags, ambiguousDiagnostic(filename, usage, found))
		}

		chosen := found[len(found)-1]
		attributed[chosen] = append(attributed[chosen], usage.Name)
	}

	result := make(Attribution, 0, len(modules))

	for _, module := range modules {
		names := attributed[module]
		sort.Strings(names)

		names = slices.Compact(names)
		if names == nil {
			names = []string{}
		}

		result = append(result, Attributed{Module: module, Names: names})
	}

	return result, diags
}
