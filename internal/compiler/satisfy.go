package compiler

// Satisfaction is one cell of the context × interface matrix.
type Satisfaction struct {
	Context   string
	Interface string
	OK        bool
	Missing   []Capability
}

// Provides reports whether c has capability cap. Every context can clone itself.
func (c *Context) Provides(cp Capability) bool {
	if cp.Kind == CapClone {
		return true
	}
	for _, f := range c.Fields {
		if f.Key == cp.Key && f.Type.String() == cp.Type.String() {
			return true
		}
	}
	return false
}

// Satisfies checks, by set containment, whether c provides every capability in the
// flattened requirement set of i. It mirrors what the Go type checker decides when
// the generated *C is assigned to the generated requirements interface.
func (p *Package) Satisfies(c *Context, i *Interface) (bool, []Capability) {
	var missing []Capability
	for _, cp := range i.Caps {
		if !c.Provides(cp) {
			missing = append(missing, cp)
		}
	}
	return len(missing) == 0, missing
}

// Matrix evaluates Satisfies for every context and interface, contexts first.
func (p *Package) Matrix() []Satisfaction {
	out := make([]Satisfaction, 0, len(p.Contexts)*len(p.Interfaces))
	for _, c := range p.Contexts {
		for _, i := range p.Interfaces {
			ok, missing := p.Satisfies(c, i)
			out = append(out, Satisfaction{Context: c.Name, Interface: i.Name, OK: ok, Missing: missing})
		}
	}
	return out
}
