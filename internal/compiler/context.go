package compiler

import (
	"fmt"
	"go/types"

	"github.com/sghaida/ctxdi/internal/join"
	"github.com/sghaida/ctxdi/internal/spec"
)

// constructorLocals are the identifiers a generated constructor declares itself.
var constructorLocals = map[string]string{
	"c":              "the context being built",
	"err":            "the construction error",
	"reg":            "the registry parameter",
	RuntimeQualifier: "the runtime package",
}

func (u *unit) compileContext(f *spec.File, d *spec.ContextDecl) (*Context, error) {
	label := "context " + d.Name
	out := &Context{Decl: d, File: f.Path, Name: d.Name}
	byName := map[string]int{}
	byKey := map[string]int{}

	out, err := join.Each(d.Bindings, out, func(out *Context, b spec.Binding, i int) (*Context, error) {
		if j, dup := byName[b.Field]; dup {
			return out, &spec.ConflictError{
				File: f.Path, Pos: b.Pos, Decl: label, Name: b.Field,
				Detail: "field declared twice (first at " + out.Fields[j].Pos.String() + ")",
			}
		}
		if err := u.resolveType(f, b.Type, label, b.Pos); err != nil {
			return out, err
		}

		key := b.Type.CapabilityKey()
		if j, dup := byKey[key]; dup {
			prev := out.Fields[j]
			if prev.Type.String() != b.Type.String() {
				return out, keyConflict(f.Path, b.Pos, label, key, prev.Type, b.Type)
			}
			return out, &spec.ConflictError{
				File: f.Path, Pos: b.Pos, Decl: label, Name: b.Type.String(),
				Detail: fmt.Sprintf("fields %s and %s both provide %s; a context provides each type once", prev.Name, b.Field, b.Type),
			}
		}

		field := Field{Name: b.Field, Type: b.Type, Key: key, Strategy: b.Strategy, Policy: b.Policy, Pos: b.Pos}
		switch b.Strategy.Kind {
		case spec.StrategyExternal:
			out.Params = append(out.Params, field)

		case spec.StrategyRegistry:
			out.UsesRegistry = true

		case spec.StrategyFactory, spec.StrategyFactoryValue, spec.StrategyFactoryArgs:
			if q := b.Strategy.Factory.Pkg; q != "" {
				if err := u.resolveQualifier(f, q, label, b.Strategy.Pos); err != nil {
					return out, err
				}
			}
			for _, arg := range b.Strategy.Args {
				if _, ok := byName[arg.Name]; !ok {
					return out, unresolvedArg(f, d, label, b, arg, i)
				}
				field.Args = append(field.Args, arg.Name)
			}
		}

		byName[b.Field] = i
		byKey[key] = i
		out.Fields = append(out.Fields, field)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if err := u.checkContextNames(f, out, label); err != nil {
		return nil, err
	}
	return out, nil
}

func unresolvedArg(f *spec.File, d *spec.ContextDecl, label string, b spec.Binding, arg spec.Ref, i int) error {
	hint := "factory arguments name earlier fields of " + d.Name
	switch {
	case arg.Name == b.Field:
		hint = b.Field + " cannot be built from itself"
	default:
		for _, later := range d.Bindings[i+1:] {
			if later.Field == arg.Name {
				hint = arg.Name + " is declared after " + b.Field
				break
			}
		}
	}
	return &spec.UnresolvedError{File: f.Path, Pos: arg.Pos, Decl: label, What: "field", Name: arg.Name, Hint: hint}
}

// checkContextNames rejects fields and constructor parameters whose names would clash
// with generated methods, with each other, or with identifiers the constructor uses.
func (u *unit) checkContextNames(f *spec.File, c *Context, label string) error {
	methods := map[string]string{
		"Clone":        "Clone",
		"CloneContext": "CloneContext",
	}
	for _, fd := range c.Fields {
		methods[fd.Provide()] = fd.Name
		methods[fd.ProvideWith()] = fd.Name
	}
	for _, fd := range c.Fields {
		if owner, ok := methods[fd.With()]; ok && owner != fd.Name {
			return &spec.ConflictError{
				File: f.Path, Pos: fd.Pos, Decl: label, Name: fd.With(),
				Detail: "generated for both " + owner + " and " + fd.Name,
			}
		}
		methods[fd.With()] = fd.Name
	}
	for _, fd := range c.Fields {
		if _, ok := methods[fd.Name]; ok {
			return &spec.ConflictError{
				File: f.Path, Pos: fd.Pos, Decl: label, Name: fd.Name,
				Detail: "field collides with a generated method of " + c.Name,
			}
		}
	}

	if len(c.Params) == 0 {
		return nil
	}
	taken := map[string]string{}
	for name, what := range constructorLocals {
		taken[name] = what
	}
	for _, name := range types.Universe.Names() {
		taken[name] = "a predeclared identifier"
	}
	taken[c.Name] = "the context type"
	for q := range u.fileImports[f] {
		taken[q] = "an imported package"
	}
	for _, fd := range c.Fields {
		if fd.External() {
			continue
		}
		if fd.Strategy.Factory.Pkg != "" {
			taken[fd.Strategy.Factory.Pkg] = "an imported package"
		} else if fd.Strategy.Factory.Name != "" {
			taken[fd.Strategy.Factory.Name] = "the factory of " + fd.Name
		}
		for _, n := range typeNames(fd.Type) {
			if _, ok := taken[n]; !ok {
				taken[n] = "a type used by " + fd.Name
			}
		}
	}
	for _, p := range c.Params {
		if what, ok := taken[p.Name]; ok {
			return &spec.ConflictError{
				File: f.Path, Pos: p.Pos, Decl: label, Name: p.Name,
				Detail: "constructor parameter shadows " + what,
			}
		}
	}
	return nil
}

// typeNames lists the unqualified type names a type expression references.
func typeNames(t *spec.TypeExpr) []string {
	var out []string
	var walk func(*spec.TypeExpr)
	walk = func(t *spec.TypeExpr) {
		if t == nil {
			return
		}
		if t.Kind == spec.TypeNamed && t.Name.Pkg == "" {
			out = append(out, t.Name.Name)
		}
		for _, a := range t.Args {
			walk(a)
		}
		walk(t.Key)
		walk(t.Elem)
	}
	walk(t)
	return out
}
