// Package compiler checks parsed spec files and turns them into the models the code
// generator renders.
//
// A run compiles one generation unit: every spec file that ends up in the same
// generated Go file. Interfaces are compiled lazily, parents first, so inheritance may
// point forward and across files. Each failed declaration contributes exactly one
// error; declarations that only fail because something they depend on failed stay
// silent. The symbol table lives for one Compile call.
package compiler

import (
	"errors"
	"sort"

	"github.com/sghaida/ctxdi/internal/spec"
)

// DefaultRuntime is the import path of the runtime package generated code uses.
const DefaultRuntime = "github.com/sghaida/ctxdi/di"

// RuntimeQualifier is the qualifier generated code uses for the runtime package.
const RuntimeQualifier = "di"

// Options tune a compilation.
type Options struct {
	// Runtime is the import path bound to the "di" qualifier. Empty means DefaultRuntime.
	Runtime string
}

// Package is a compiled generation unit.
type Package struct {
	Name       string        // from the spec package clauses; may be empty
	Runtime    string        // import path of the runtime package
	Imports    []spec.Import // spec imports that are actually referenced, sorted by path
	Interfaces []*Interface  // declaration order
	Contexts   []*Context    // declaration order
}

// Interface looks a compiled interface up by name.
func (p *Package) Interface(name string) (*Interface, bool) {
	for _, i := range p.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

// Context looks a compiled context up by name.
func (p *Package) Context(name string) (*Context, bool) {
	for _, c := range p.Contexts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NeedsRuntime reports whether the generated code references the runtime package.
func (p *Package) NeedsRuntime() bool {
	if len(p.Contexts) > 0 {
		return true
	}
	for _, i := range p.Interfaces {
		if len(i.Substitutions()) > 0 {
			return true
		}
		for _, c := range i.Own {
			if c.Kind == CapClone {
				return true
			}
		}
	}
	for _, imp := range p.Imports {
		if imp.Path == p.Runtime {
			return true
		}
	}
	return false
}

// errDependency marks a declaration that failed only because one it depends on did.
var errDependency = errors.New("compiler: depends on a failed declaration")

type ifaceState int

const (
	unvisited ifaceState = iota
	visiting
	done
)

type ifaceEntry struct {
	decl  *spec.InterfaceDecl
	file  *spec.File
	state ifaceState
	out   *Interface
	err   error
}

type unit struct {
	opts Options

	ifaces   map[string]*ifaceEntry
	order    []*ifaceEntry
	contexts map[string]bool
	stack    []string

	fileImports map[*spec.File]map[string]spec.Import
	imports     map[string]spec.Import // merged, by qualifier
	used        map[string]bool        // referenced qualifiers

	globals map[string]string // generated identifier -> declaring decl label
}

// Compile checks files as one generation unit. On failure it returns every
// declaration error joined with errors.Join and a nil Package.
func Compile(files []*spec.File, opts Options) (*Package, error) {
	if opts.Runtime == "" {
		opts.Runtime = DefaultRuntime
	}
	u := &unit{
		opts:        opts,
		ifaces:      map[string]*ifaceEntry{},
		contexts:    map[string]bool{},
		fileImports: map[*spec.File]map[string]spec.Import{},
		imports:     map[string]spec.Import{},
		used:        map[string]bool{},
		globals:     map[string]string{},
	}
	pkg := &Package{Runtime: opts.Runtime}
	var errs []error

	type pending struct {
		file *spec.File
		decl *spec.ContextDecl
	}
	var ctxs []pending

	for _, f := range files {
		if f.Package != "" {
			switch {
			case pkg.Name == "":
				pkg.Name = f.Package
			case pkg.Name != f.Package:
				errs = append(errs, &spec.ConflictError{
					File:   f.Path,
					Decl:   "package " + f.Package,
					Name:   f.Package,
					Detail: "other spec files of this unit declare package " + pkg.Name,
				})
			}
		}
		errs = append(errs, u.addImports(f)...)

		for _, d := range f.Interfaces {
			if err := u.declare(f, d.Pos, "interface "+d.Name, d.Name, d.Name+"Requirements", "New"+d.Name, "viewOf"+d.Name); err != nil {
				errs = append(errs, err)
				continue
			}
			e := &ifaceEntry{decl: d, file: f}
			u.ifaces[d.Name] = e
			u.order = append(u.order, e)
		}
		for _, d := range f.Contexts {
			if err := u.declare(f, d.Pos, "context "+d.Name, d.Name, "New"+d.Name, d.Name+"Bindings"); err != nil {
				errs = append(errs, err)
				continue
			}
			u.contexts[d.Name] = true
			ctxs = append(ctxs, pending{file: f, decl: d})
		}
	}

	for _, e := range u.order {
		out, err := u.interfaceFor(e.decl.Name)
		switch {
		case errors.Is(err, errDependency):
		case err != nil:
			errs = append(errs, err)
		default:
			pkg.Interfaces = append(pkg.Interfaces, out)
		}
	}

	for _, p := range ctxs {
		out, err := u.compileContext(p.file, p.decl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pkg.Contexts = append(pkg.Contexts, out)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for q := range u.used {
		if imp, ok := u.imports[q]; ok {
			pkg.Imports = append(pkg.Imports, imp)
		}
	}
	sort.Slice(pkg.Imports, func(i, j int) bool { return pkg.Imports[i].Path < pkg.Imports[j].Path })
	return pkg, nil
}

// addImports records the imports of f. A qualifier may be bound to one path only,
// across the whole unit, and "di" is reserved for the runtime.
func (u *unit) addImports(f *spec.File) []error {
	local := map[string]spec.Import{}
	u.fileImports[f] = local
	var errs []error

	for _, imp := range f.Imports {
		q := imp.Qualifier()
		label := "import " + `"` + imp.Path + `"`
		if q == RuntimeQualifier && imp.Path != u.opts.Runtime {
			errs = append(errs, &spec.ConflictError{
				File: f.Path, Pos: imp.Pos, Decl: label, Name: q,
				Detail: "qualifier di is reserved for the runtime package " + u.opts.Runtime,
			})
			continue
		}
		if prev, ok := local[q]; ok && prev.Path != imp.Path {
			errs = append(errs, &spec.ConflictError{
				File: f.Path, Pos: imp.Pos, Decl: label, Name: q,
				Detail: "already imported as " + prev.Path,
			})
			continue
		}
		if prev, ok := u.imports[q]; ok && prev.Path != imp.Path {
			errs = append(errs, &spec.ConflictError{
				File: f.Path, Pos: imp.Pos, Decl: label, Name: q,
				Detail: "another spec file of this unit imports " + prev.Path + " as " + q,
			})
			continue
		}
		local[q] = imp
		if _, ok := u.imports[q]; !ok {
			u.imports[q] = imp
		}
	}
	return errs
}

// declare reserves the top-level identifiers a declaration generates.
func (u *unit) declare(f *spec.File, pos spec.Pos, label string, names ...string) error {
	for _, n := range names {
		if owner, ok := u.globals[n]; ok {
			return &spec.ConflictError{
				File: f.Path, Pos: pos, Decl: label, Name: n,
				Detail: "identifier already generated for " + owner,
			}
		}
	}
	for _, n := range names {
		u.globals[n] = label
	}
	return nil
}

// resolveQualifier marks q as used, or reports it as unresolved.
func (u *unit) resolveQualifier(f *spec.File, q string, label string, pos spec.Pos) error {
	if q == RuntimeQualifier {
		u.used[q] = true
		if _, ok := u.imports[q]; !ok {
			u.imports[q] = spec.Import{Path: u.opts.Runtime}
		}
		return nil
	}
	if _, ok := u.fileImports[f][q]; !ok {
		return &spec.UnresolvedError{
			File: f.Path, Pos: pos, Decl: label, What: "package qualifier", Name: q,
			Hint: "import it in " + f.Path,
		}
	}
	u.used[q] = true
	return nil
}

func (u *unit) resolveType(f *spec.File, t *spec.TypeExpr, label string, pos spec.Pos) error {
	for _, q := range t.Qualifiers() {
		if err := u.resolveQualifier(f, q, label, pos); err != nil {
			return err
		}
	}
	return nil
}

// keyConflict reports two distinct types that mangle to the same capability key.
func keyConflict(file string, pos spec.Pos, label string, key string, a, b *spec.TypeExpr) error {
	return &spec.ConflictError{
		File: file, Pos: pos, Decl: label, Name: key,
		Detail: "types " + a.String() + " and " + b.String() + " share the capability key " + key,
	}
}
