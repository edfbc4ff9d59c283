package pyscope

// Location is a 1-based line and 0-based byte column in the analyzed source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Wildcard is one distinct "from <module> import *" statement target.
type Wildcard struct {
	// Module is the module reference exactly as the rewriter must match it,
	// e.g. ".mod", "..pkg.mod" or "os.path".
	Module string `json:"module"`
	// Level is the number of leading dots. Zero means absolute.
	Level int `json:"level"`
	// Location is the first statement importing this module with a wildcard.
	Location Location `json:"location"`
	// Occurrences counts every wildcard statement for the module.
	Occurrences int `json:"occurrences"`
}

// Relative reports whether the wildcard uses a relative module reference.
func (w Wildcard) Relative() bool {
	return w.Level > 0
}

// Usage is a name that is referenced but never bound, while one or more
// wildcard imports were visible at the point of use.
type Usage struct {
	Name string `json:"name"`
	// Modules are the wildcard candidates in import order.
	Modules  []string `json:"modules"`
	Location Location `json:"location"`
}

// Report is the outcome of analyzing one Python module.
type Report struct {
	// Wildcards lists distinct star-imported modules in first-import order.
	Wildcards []Wildcard `json:"wildcards"`
	// Usages lists undefined names in discovery order. Each name appears once.
	Usages []Usage `json:"usages"`
	// Names are the module-level bindings, annotation-only declarations
	// included, excluding builtins and magic globals, sorted.
	Names []string `json:"names"`
	// All is the statically known value of __all__, when HasAll is set.
	All    []string `json:"all,omitempty"`
	HasAll bool     `json:"has_all"`
}

// Exports returns the names a wildcard import of this module brings into
// scope: every module-level binding, annotation-only declarations included.
// __all__ does not narrow the set. Builtins and magic globals are never
// exported.
func (r *Report) Exports() []string {
	out := make([]string, 0, len(r.Names))

	for _, name := range r.Names {
		if IsImplicit(name) {
			continue
		}

		out = append(out, name)
	}

	return out
}

// WildcardModules returns the distinct star-imported module references.
func (r *Report) WildcardModules() []string {
	out := make([]string, len(r.Wildcards))
	for i, w := range r.Wildcards {
		out[i] = w.Module
	}

	return out
}

// UsageNames returns the names of all usages in discovery order.
func (r *Report) UsageNames() []string {
	out := make([]string, len(r.Usages))
	for i, u := range r.Usages {
		out[i] = u.Name
	}

	return out
}
