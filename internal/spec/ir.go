package spec

import (
	"strconv"
	"strings"
	"unicode"
)

// Pos is a 1-based line/column position in a spec file.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col) }

// MarshalText renders positions as "line:col" in IR dumps.
func (p Pos) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// File is the IR of one spec file.
type File struct {
	Path       string           `json:"path"`
	Package    string           `json:"package,omitempty"`
	Imports    []Import         `json:"imports,omitempty"`
	Interfaces []*InterfaceDecl `json:"interfaces,omitempty"`
	Contexts   []*ContextDecl   `json:"contexts,omitempty"`
}

// Import is a Go import made visible to type and factory qualifiers.
type Import struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
	Pos  Pos    `json:"pos"`
}

// Qualifier is the identifier a spec uses to refer to the import: the explicit name,
// else the name goimports would assume from the path.
func (i Import) Qualifier() string {
	if i.Name != "" {
		return i.Name
	}
	elems := strings.Split(i.Path, "/")
	p := elems[len(elems)-1]
	if len(elems) > 1 && strings.HasPrefix(p, "v") && isDigits(p[1:]) {
		p = elems[len(elems)-2]
	}
	p = strings.TrimPrefix(p, "go-")
	if idx := strings.IndexFunc(p, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}); idx >= 0 {
		p = p[:idx]
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Ref is a named reference with the position it was written at.
type Ref struct {
	Name string `json:"name"`
	Pos  Pos    `json:"pos"`
}

// InterfaceDecl is `interface Name [: Base + Marker] { fn m(&self) -> T; ... }`.
type InterfaceDecl struct {
	Name     string   `json:"name"`
	Pos      Pos      `json:"pos"`
	Inherits []Ref    `json:"inherits,omitempty"`
	Markers  []Marker `json:"markers,omitempty"`
	Methods  []Method `json:"methods,omitempty"`
}

// Method is one required accessor of an interface.
type Method struct {
	Name string    `json:"name"`
	Type *TypeExpr `json:"type"`
	Pos  Pos       `json:"pos"`
}

// MarkerKind identifies an auxiliary capability listed among an interface's supers.
type MarkerKind int

const (
	MarkerClone MarkerKind = iota + 1
	MarkerProvideWith
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerClone:
		return "clone"
	case MarkerProvideWith:
		return "provide_with"
	default:
		return "marker(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k MarkerKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Marker is Clone or ProvideWith<T>.
type Marker struct {
	Kind MarkerKind `json:"kind"`
	Type *TypeExpr  `json:"type,omitempty"` // ProvideWith only
	Pos  Pos        `json:"pos"`
}

// ContextDecl is `context Name { field: T [Strategy] policy, ... }`.
type ContextDecl struct {
	Name     string    `json:"name"`
	Pos      Pos       `json:"pos"`
	Bindings []Binding `json:"bindings,omitempty"`
}

// Binding is one slot of a context.
type Binding struct {
	Field    string    `json:"field"`
	Type     *TypeExpr `json:"type"`
	Strategy Strategy  `json:"strategy"`
	Policy   Policy    `json:"policy"`
	Pos      Pos       `json:"pos"`
}

// StrategyKind says how a binding's value is obtained.
type StrategyKind int

const (
	StrategyExternal     StrategyKind = iota // constructor parameter
	StrategyFactory                          // [NewX]
	StrategyFactoryArgs                      // [NewX(a, b)]
	StrategyFactoryValue                     // [XFactory{}]
	StrategyRegistry                         // ["key"]
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyExternal:
		return "external"
	case StrategyFactory:
		return "factory"
	case StrategyFactoryArgs:
		return "factory-args"
	case StrategyFactoryValue:
		return "factory-value"
	case StrategyRegistry:
		return "registry"
	default:
		return "strategy(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k StrategyKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Strategy is the construction recipe of a binding.
type Strategy struct {
	Kind    StrategyKind `json:"kind"`
	Factory QualIdent    `json:"factory,omitzero"`
	Args    []Ref        `json:"args,omitempty"`
	Key     string       `json:"key,omitempty"`
	Pos     Pos          `json:"pos,omitzero"`
}

// Source renders the strategy the way it reads in the spec, without brackets.
func (s Strategy) Source() string {
	switch s.Kind {
	case StrategyFactory:
		return s.Factory.String()
	case StrategyFactoryValue:
		return s.Factory.String() + "{}"
	case StrategyFactoryArgs:
		names := make([]string, len(s.Args))
		for i, a := range s.Args {
			names[i] = a.Name
		}
		return s.Factory.String() + "(" + strings.Join(names, ", ") + ")"
	case StrategyRegistry:
		return strconv.Quote(s.Key)
	default:
		return ""
	}
}

// Policy controls what Clone does with a binding.
type Policy int

const (
	PolicyShared Policy = iota
	PolicyExclusive
)

func (p Policy) String() string {
	if p == PolicyExclusive {
		return "exclusive"
	}
	return "shared"
}

func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// QualIdent is an optionally package-qualified identifier.
type QualIdent struct {
	Pkg  string `json:"pkg,omitempty"`
	Name string `json:"name,omitempty"`
}

func (q QualIdent) String() string {
	if q.Pkg == "" {
		return q.Name
	}
	return q.Pkg + "." + q.Name
}

// IsZero lets encoding/json omit empty factories.
func (q QualIdent) IsZero() bool { return q.Pkg == "" && q.Name == "" }

// MarshalText renders the identifier as written.
func (q QualIdent) MarshalText() ([]byte, error) { return []byte(q.String()), nil }
