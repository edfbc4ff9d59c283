package pyscope

// Kind classifies a lexical scope.
type Kind uint8

// Scope kinds.
const (
	ModuleScope Kind = iota
	ClassScope
	FunctionScope
	GeneratorScope
	// TypeScope holds PEP 695 type parameters around a definition.
	TypeScope
)

// String returns the scope kind name.
func (k Kind) String() string {
	switch k {
	case ModuleScope:
		return "module"
	case ClassScope:
		return "class"
	case FunctionScope:
		return "function"
	case GeneratorScope:
		return "generator"
	case TypeScope:
		return "type"
	default:
		return "unknown"
	}
}

type bindingKind uint8

const (
	bindValue bindingKind = iota
	// bindAnnotation marks "x: int" with no value. It does not satisfy loads.
	bindAnnotation
	// bindImplicit marks names the interpreter defines, such as __qualname__.
	bindImplicit
)

type scope struct {
	kind     Kind
	bindings map[string]bindingKind
	// stars indexes checker.stars for every wildcard import made in this scope.
	stars []int
}

func newScope(kind Kind) *scope {
	return &scope{kind: kind, bindings: make(map[string]bindingKind)}
}

func (s *scope) bind(name string, kind bindingKind) {
	if kind == bindAnnotation {
		if _, ok := s.bindings[name]; ok {
			return
		}
	}

	s.bindings[name] = kind
}

// bindDefault binds name only if it is not already bound.
func (s *scope) bindDefault(name string) {
	if _, ok := s.bindings[name]; !ok {
		s.bindings[name] = bindValue
	}
}

// defines reports whether name is bound to something a load can see.
func (s *scope) defines(name string) bool {
	kind, ok := s.bindings[name]

	return ok && kind != bindAnnotation
}
