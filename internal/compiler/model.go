package compiler

import "github.com/sghaida/ctxdi/internal/spec"

// CapabilityKind tells which generated method a capability stands for.
type CapabilityKind int

const (
	CapProvide CapabilityKind = iota
	CapProvideWith
	CapClone
)

func (k CapabilityKind) String() string {
	switch k {
	case CapProvideWith:
		return "provide_with"
	case CapClone:
		return "clone"
	default:
		return "provide"
	}
}

// Capability is one method a context must have to satisfy an interface.
type Capability struct {
	Kind CapabilityKind
	Key  string         // capability key of Type; empty for CapClone
	Type *spec.TypeExpr // nil for CapClone
}

// Method is the Go method name of the capability.
func (c Capability) Method() string {
	switch c.Kind {
	case CapProvideWith:
		return "ProvideWith" + c.Key
	case CapClone:
		return "CloneContext"
	default:
		return "Provide" + c.Key
	}
}

// String renders the capability for diagnostics, e.g. "ProvideWith<Logger>".
func (c Capability) String() string {
	switch c.Kind {
	case CapProvideWith:
		return "ProvideWith<" + c.Type.String() + ">"
	case CapClone:
		return "Clone"
	default:
		return "Provide<" + c.Type.String() + ">"
	}
}

// Accessor is a named method of an interface view. It delegates to Provider.
type Accessor struct {
	Name   string // Go method name
	Source string // as written in the spec
	Type   *spec.TypeExpr
	Key    string
	Origin string // interface that declares it
	Pos    spec.Pos
}

// Provider is the capability method the accessor forwards to.
func (a Accessor) Provider() string { return "Provide" + a.Key }

// Interface is a compiled interface declaration.
type Interface struct {
	Decl *spec.InterfaceDecl
	File string
	Name string

	Embeds []*Interface // inherited interfaces, declaration order

	Own  []Capability // introduced by this declaration
	Caps []Capability // flattened over inheritance, parents first

	OwnAccessors []Accessor
	Accessors    []Accessor

	Clone bool // CloneContext is part of Caps
}

// Requirements is the name of the generated requirement interface.
func (i *Interface) Requirements() string { return i.Name + "Requirements" }

// Constructor is the name of the generated adapter constructor.
func (i *Interface) Constructor() string { return "New" + i.Name }

// View is the name of the unexported adapter struct.
func (i *Interface) View() string { return "viewOf" + i.Name }

// Substitutions returns the flattened ProvideWith capabilities.
func (i *Interface) Substitutions() []Capability {
	var out []Capability
	for _, c := range i.Caps {
		if c.Kind == CapProvideWith {
			out = append(out, c)
		}
	}
	return out
}

// Field is one slot of a compiled context.
type Field struct {
	Name     string // struct field, as written in the spec
	Type     *spec.TypeExpr
	Key      string
	Strategy spec.Strategy
	Policy   spec.Policy
	Args     []string // earlier fields handed to a factory
	Pos      spec.Pos
}

// Provide is the name of the capability method that returns the field.
func (f Field) Provide() string { return "Provide" + f.Key }

// ProvideWith is the name of the type-erased substitution method.
func (f Field) ProvideWith() string { return "ProvideWith" + f.Key }

// With is the name of the typed substitution method.
func (f Field) With() string { return "With" + spec.Export(f.Name) }

// External reports whether the field is a constructor parameter.
func (f Field) External() bool { return f.Strategy.Kind == spec.StrategyExternal }

// Exclusive reports whether Clone duplicates the field.
func (f Field) Exclusive() bool { return f.Policy == spec.PolicyExclusive }

// Context is a compiled context declaration.
type Context struct {
	Decl *spec.ContextDecl
	File string
	Name string

	Fields       []Field
	Params       []Field // external fields, declaration order
	UsesRegistry bool
}

// Constructor is the name of the generated constructor.
func (c *Context) Constructor() string { return "New" + c.Name }

// BindingsVar is the name of the generated binding table.
func (c *Context) BindingsVar() string { return c.Name + "Bindings" }

// Built reports whether any field runs a strategy at construction.
func (c *Context) Built() bool { return len(c.Params) < len(c.Fields) }

// Field looks a field up by name.
func (c *Context) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Capabilities lists everything the context provides: CloneContext, then Provide and
// ProvideWith for each field.
func (c *Context) Capabilities() []Capability {
	out := []Capability{{Kind: CapClone}}
	for _, f := range c.Fields {
		out = append(out,
			Capability{Kind: CapProvide, Key: f.Key, Type: f.Type},
			Capability{Kind: CapProvideWith, Key: f.Key, Type: f.Type},
		)
	}
	return out
}
