package codegen

import (
	"path"
	"strconv"
	"strings"
	"text/template"

	"github.com/sghaida/ctxdi/internal/compiler"
	"github.com/sghaida/ctxdi/internal/spec"
)

var funcs = template.FuncMap{
	"typ":           func(t *spec.TypeExpr) string { return t.String() },
	"quote":         strconv.Quote,
	"base":          path.Base,
	"params":        params,
	"build":         buildExpr,
	"isProvide":     func(c compiler.Capability) bool { return c.Kind == compiler.CapProvide },
	"isProvideWith": func(c compiler.Capability) bool { return c.Kind == compiler.CapProvideWith },
	"ownsClone":     ownsClone,
}

// ownsClone reports whether i itself introduces the Clone marker.
func ownsClone(i *compiler.Interface) bool {
	for _, c := range i.Own {
		if c.Kind == compiler.CapClone {
			return true
		}
	}
	return false
}

// params renders the constructor parameter list of c.
func params(c *compiler.Context) string {
	out := make([]string, 0, len(c.Params)+1)
	for _, p := range c.Params {
		out = append(out, p.Name+" "+p.Type.String())
	}
	if c.UsesRegistry {
		out = append(out, "reg "+compiler.RuntimeQualifier+".Registry")
	}
	return strings.Join(out, ", ")
}

// buildExpr renders the call that produces a built field: it always yields (T, error).
func buildExpr(f compiler.Field) string {
	s := f.Strategy
	switch s.Kind {
	case spec.StrategyFactoryArgs:
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			args[i] = "c." + a
		}
		return s.Factory.String() + "(" + strings.Join(args, ", ") + ")"
	case spec.StrategyFactoryValue:
		return "di.Build[" + f.Type.String() + "](" + s.Factory.String() + "{})"
	case spec.StrategyRegistry:
		return "di.ResolveAs[" + f.Type.String() + "](reg, " + strconv.Quote(s.Key) + ")"
	default:
		return s.Factory.String() + "()"
	}
}

var fileTpl = template.Must(template.New("file").Funcs(funcs).Parse(`// Code generated by ctxdi; DO NOT EDIT.
{{- range .Sources }}
// Spec: {{ .Path }}
{{- end }}
// Spec-SHA256: {{ .Hash }}

package {{ .Package }}
{{ if .Imports }}
import (
{{- range .Imports }}
	{{- if .Name }}
	{{ .Name }} "{{ .Path }}"
	{{- else }}
	"{{ .Path }}"
	{{- end }}
{{- end }}
)
{{ end }}
{{- range .Interfaces }}
{{ template "interface" . }}
{{- end }}
{{- range .Contexts }}
{{ template "context" . }}
{{- end }}
{{- if .Asserts }}

// Compile-time proof of every context/interface pair ctxdi found satisfied.
var (
{{- range .Asserts }}
	_ {{ .Requirements }} = (*{{ .Context }})(nil)
{{- end }}
)
{{- end }}
`))

var _ = template.Must(fileTpl.New("interface").Parse(`
// {{ .Requirements }} is the capability set a context needs to be used as {{ .Name }}.
type {{ .Requirements }} interface {
{{- range .Embeds }}
	{{ .Requirements }}
{{- end }}
{{- if ownsClone . }}
	di.Cloner
{{- end }}
{{- range .Own }}
	{{- if isProvide . }}
	{{ .Method }}() {{ typ .Type }}
	{{- else if isProvideWith . }}
	{{ .Method }}(replace func({{ typ .Type }}) ({{ typ .Type }}, error)) (any, error)
	{{- end }}
{{- end }}
}

// {{ .Name }} exposes the accessors declared in {{ base .File }} on top of {{ .Requirements }}.
type {{ .Name }} interface {
	{{ .Requirements }}
{{- range .Embeds }}
	{{ .Name }}
{{- end }}
{{- range .OwnAccessors }}
	{{ .Name }}() {{ typ .Type }}
{{- end }}
}

// {{ .Constructor }} adapts r to {{ .Name }}. It returns nil for a nil r and r itself
// when it already implements {{ .Name }}.
func {{ .Constructor }}(r {{ .Requirements }}) {{ .Name }} {
	if r == nil {
		return nil
	}
	if v, ok := r.({{ .Name }}); ok {
		return v
	}
	return {{ .View }}{r}
}

type {{ .View }} struct {
	{{ .Requirements }}
}
{{ range .Accessors }}
func (v {{ $.View }}) {{ .Name }}() {{ typ .Type }} { return v.{{ .Provider }}() }
{{ end }}
{{- if .Clone }}
func (v {{ .View }}) CloneContext() any {
	c, ok := v.{{ .Requirements }}.CloneContext().({{ .Requirements }})
	if !ok {
		return nil
	}
	return {{ .Constructor }}(c)
}
{{ end }}
{{- range .Substitutions }}
func (v {{ $.View }}) {{ .Method }}(replace func({{ typ .Type }}) ({{ typ .Type }}, error)) (any, error) {
	out, err := v.{{ $.Requirements }}.{{ .Method }}(replace)
	if err != nil {
		return nil, err
	}
	c, ok := out.({{ $.Requirements }})
	if !ok {
		return nil, di.NewWrongTypeError({{ quote .Method }}, {{ quote $.Requirements }}, out)
	}
	return {{ $.Constructor }}(c), nil
}
{{ end }}`))

var _ = template.Must(fileTpl.New("context").Parse(`
// {{ .Name }} is the dependency context declared in {{ base .File }}.
type {{ .Name }} struct {
{{- range .Fields }}
	{{ .Name }} {{ typ .Type }}
{{- end }}
}

// {{ .Constructor }} runs the bindings of {{ .Name }} in declaration order. The first
// failing binding stops construction and is reported as a *di.ConstructionError.
func {{ .Constructor }}({{ params . }}) (*{{ .Name }}, error) {
{{- if .Params }}
	c := &{{ .Name }}{
{{- range .Params }}
		{{ .Name }}: {{ .Name }},
{{- end }}
	}
{{- else }}
	c := &{{ .Name }}{}
{{- end }}
{{- if .Built }}
	var err error
{{- range .Fields }}
{{- if not .External }}
	if c.{{ .Name }}, err = {{ build . }}; err != nil {
		return nil, &di.ConstructionError{Context: {{ quote $.Name }}, Field: {{ quote .Name }}, Err: err}
	}
{{- end }}
{{- end }}
{{- end }}
	return c, nil
}

// Clone returns a copy of c. Shared bindings keep pointing at the same values;
// exclusive bindings are duplicated through their Clone method.
func (c *{{ .Name }}) Clone() *{{ .Name }} {
	cp := *c
{{- range .Fields }}
{{- if .Exclusive }}
	cp.{{ .Name }} = c.{{ .Name }}.Clone()
{{- end }}
{{- end }}
	return &cp
}

// CloneContext implements di.Cloner.
func (c *{{ .Name }}) CloneContext() any { return c.Clone() }
{{ range .Fields }}
// {{ .Provide }} returns the {{ .Name }} binding.
func (c *{{ $.Name }}) {{ .Provide }}() {{ typ .Type }} { return c.{{ .Name }} }

// {{ .With }} returns a copy of c with the {{ .Name }} binding rebuilt by replace.
// c itself is never modified.
func (c *{{ $.Name }}) {{ .With }}(replace func({{ typ .Type }}) ({{ typ .Type }}, error)) (*{{ $.Name }}, error) {
	if replace == nil {
		return nil, &di.ConstructionError{Context: {{ quote $.Name }}, Field: {{ quote .Name }}, Err: di.ErrNilReplacement}
	}
	v, err := replace(c.{{ .Name }})
	if err != nil {
		return nil, &di.ConstructionError{Context: {{ quote $.Name }}, Field: {{ quote .Name }}, Err: err}
	}
	cp := *c
{{- $field := .Name }}
{{- range $.Fields }}
{{- if and .Exclusive (ne .Name $field) }}
	cp.{{ .Name }} = c.{{ .Name }}.Clone()
{{- end }}
{{- end }}
	cp.{{ .Name }} = v
	return &cp, nil
}

// {{ .ProvideWith }} is {{ .With }} with the result type erased.
func (c *{{ $.Name }}) {{ .ProvideWith }}(replace func({{ typ .Type }}) ({{ typ .Type }}, error)) (any, error) {
	cp, err := c.{{ .With }}(replace)
	if err != nil {
		return nil, err
	}
	return cp, nil
}
{{ end }}
// {{ .BindingsVar }} describes the bindings of {{ .Name }} in declaration order.
var {{ .BindingsVar }} = []di.Binding{
{{- range .Fields }}
	{Field: {{ quote .Name }}, Type: {{ quote (typ .Type) }}, Strategy: {{ quote .Strategy.Kind.String }}, Source: {{ quote .Strategy.Source }}, Policy: {{ quote .Policy.String }}},
{{- end }}
}
`))
