package di

// Binding describes one slot of a generated context.
//
// Generated files export a <Context>Bindings table so tests and diagnostics can
// inspect what a context is made of without reflection.
type Binding struct {
	Field    string // field name as declared
	Type     string // Go type as written in the spec
	Strategy string // "factory", "factory-args", "factory-value", "registry" or "external"
	Source   string // factory expression or registry key; empty for external bindings
	Policy   string // "shared" or "exclusive"
}

// FindBinding returns the binding for field, if any.
func FindBinding(bindings []Binding, field string) (Binding, bool) {
	for _, b := range bindings {
		if b.Field == field {
			return b, true
		}
	}
	return Binding{}, false
}
