package compiler

import (
	"fmt"
	"strings"

	"github.com/sghaida/ctxdi/internal/join"
	"github.com/sghaida/ctxdi/internal/spec"
)

// interfaceFor compiles the named interface once and caches the outcome.
func (u *unit) interfaceFor(name string) (*Interface, error) {
	e := u.ifaces[name]
	if e.state == done {
		return e.out, e.err
	}
	e.state = visiting
	u.stack = append(u.stack, name)
	e.out, e.err = u.compileInterface(e)
	u.stack = u.stack[:len(u.stack)-1]
	e.state = done
	return e.out, e.err
}

// flattener accumulates the accessors and capabilities of an interface, parents first.
// Same name and type seen twice (a diamond) is kept once; same name with another type
// is a conflict.
type flattener struct {
	file  string
	label string

	accessors []Accessor
	byName    map[string]Accessor

	caps     []Capability
	byMethod map[string]bool
	keyType  map[string]*spec.TypeExpr
}

func newFlattener(file, label string) *flattener {
	return &flattener{
		file:     file,
		label:    label,
		byName:   map[string]Accessor{},
		byMethod: map[string]bool{},
		keyType:  map[string]*spec.TypeExpr{},
	}
}

func (fl *flattener) accessor(a Accessor, pos spec.Pos) (bool, error) {
	prev, ok := fl.byName[a.Name]
	if !ok {
		fl.byName[a.Name] = a
		fl.accessors = append(fl.accessors, a)
		return true, nil
	}
	if prev.Type.String() == a.Type.String() {
		return false, nil
	}
	return false, &spec.ConflictError{
		File: fl.file, Pos: pos, Decl: fl.label, Name: a.Name,
		Detail: fmt.Sprintf("%s declares %s, %s declares %s", prev.Origin, prev.Type, a.Origin, a.Type),
	}
}

func (fl *flattener) capability(c Capability, pos spec.Pos) (bool, error) {
	if c.Kind != CapClone {
		if t, ok := fl.keyType[c.Key]; ok && t.String() != c.Type.String() {
			return false, keyConflict(fl.file, pos, fl.label, c.Key, t, c.Type)
		}
		fl.keyType[c.Key] = c.Type
	}
	if fl.byMethod[c.Method()] {
		return false, nil
	}
	fl.byMethod[c.Method()] = true
	fl.caps = append(fl.caps, c)
	return true, nil
}

func (u *unit) compileInterface(e *ifaceEntry) (*Interface, error) {
	d, f := e.decl, e.file
	label := "interface " + d.Name
	fl := newFlattener(f.Path, label)
	out := &Interface{Decl: d, File: f.Path, Name: d.Name}

	// Parents, in declaration order.
	out, err := join.Each(d.Inherits, out, func(out *Interface, ref spec.Ref, i int) (*Interface, error) {
		for _, prev := range d.Inherits[:i] {
			if prev.Name == ref.Name {
				return out, &spec.ConflictError{File: f.Path, Pos: ref.Pos, Decl: label, Name: ref.Name, Detail: "inherited twice"}
			}
		}
		pe, ok := u.ifaces[ref.Name]
		if !ok {
			hint := ""
			if u.contexts[ref.Name] {
				hint = ref.Name + " is a context"
			}
			return out, &spec.UnresolvedError{File: f.Path, Pos: ref.Pos, Decl: label, What: "interface", Name: ref.Name, Hint: hint}
		}
		if pe.state == visiting {
			return out, &spec.ConflictError{
				File: f.Path, Pos: ref.Pos, Decl: label, Name: ref.Name,
				Detail: "inheritance cycle " + u.cycle(ref.Name),
			}
		}
		parent, err := u.interfaceFor(ref.Name)
		if err != nil {
			return out, errDependency
		}

		out.Embeds = append(out.Embeds, parent)
		out.Clone = out.Clone || parent.Clone
		for _, a := range parent.Accessors {
			if _, err := fl.accessor(a, ref.Pos); err != nil {
				return out, err
			}
		}
		for _, c := range parent.Caps {
			if _, err := fl.capability(c, ref.Pos); err != nil {
				return out, err
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	// Own accessors. Each one requires the matching Provide capability.
	out, err = join.Each(d.Methods, out, func(out *Interface, m spec.Method, i int) (*Interface, error) {
		name := spec.Export(m.Name)
		for _, prev := range d.Methods[:i] {
			if spec.Export(prev.Name) != name {
				continue
			}
			detail := "declared twice"
			if prev.Name != m.Name {
				detail = "methods " + prev.Name + " and " + m.Name + " both become " + name
			}
			return out, &spec.ConflictError{File: f.Path, Pos: m.Pos, Decl: label, Name: name, Detail: detail}
		}
		if err := u.resolveType(f, m.Type, label, m.Pos); err != nil {
			return out, err
		}

		key := m.Type.CapabilityKey()
		a := Accessor{Name: name, Source: m.Name, Type: m.Type, Key: key, Origin: d.Name, Pos: m.Pos}
		added, err := fl.accessor(a, m.Pos)
		if err != nil {
			return out, err
		}
		if added {
			out.OwnAccessors = append(out.OwnAccessors, a)
		}
		return out, u.ownCapability(fl, out, Capability{Kind: CapProvide, Key: key, Type: m.Type}, m.Pos)
	})
	if err != nil {
		return nil, err
	}

	// Markers.
	seenClone := false
	provideWith := map[string]bool{}
	for _, mk := range d.Markers {
		switch mk.Kind {
		case spec.MarkerClone:
			if seenClone {
				return nil, &spec.ConflictError{File: f.Path, Pos: mk.Pos, Decl: label, Name: "Clone", Detail: "listed twice"}
			}
			seenClone = true
			out.Clone = true
			if err := u.ownCapability(fl, out, Capability{Kind: CapClone}, mk.Pos); err != nil {
				return nil, err
			}

		case spec.MarkerProvideWith:
			if err := u.resolveType(f, mk.Type, label, mk.Pos); err != nil {
				return nil, err
			}
			key := mk.Type.CapabilityKey()
			if provideWith[key] {
				return nil, &spec.ConflictError{File: f.Path, Pos: mk.Pos, Decl: label, Name: "ProvideWith<" + mk.Type.String() + ">", Detail: "listed twice"}
			}
			provideWith[key] = true
			for _, kind := range []CapabilityKind{CapProvide, CapProvideWith} {
				if err := u.ownCapability(fl, out, Capability{Kind: kind, Key: key, Type: mk.Type}, mk.Pos); err != nil {
					return nil, err
				}
			}
		}
	}

	// Accessors share the view's method set with the capabilities and the embedded
	// requirements field of the adapter.
	for _, a := range fl.accessors {
		if fl.byMethod[a.Name] || a.Name == "CloneContext" || a.Name == out.Requirements() {
			return nil, &spec.ConflictError{
				File: f.Path, Pos: a.Pos, Decl: label, Name: a.Name,
				Detail: "accessor collides with a generated method of " + d.Name,
			}
		}
	}

	out.Caps = fl.caps
	out.Accessors = fl.accessors
	return out, nil
}

func (u *unit) ownCapability(fl *flattener, out *Interface, c Capability, pos spec.Pos) error {
	added, err := fl.capability(c, pos)
	if err != nil {
		return err
	}
	if added {
		out.Own = append(out.Own, c)
	}
	return nil
}

// cycle renders the inheritance path that leads back to name.
func (u *unit) cycle(name string) string {
	start := 0
	for i, n := range u.stack {
		if n == name {
			start = i
			break
		}
	}
	path := append(append([]string{}, u.stack[start:]...), name)
	return strings.Join(path, " -> ")
}
