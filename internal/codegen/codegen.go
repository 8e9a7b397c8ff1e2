// Package codegen renders a compiled generation unit as one Go source file.
//
// The output is produced with text/template and normalised with go/format. Besides the
// generated declarations the file carries a header naming the spec sources and a
// SHA-256 over their contents, so a stale file is easy to spot in review.
package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sghaida/ctxdi/internal/compiler"
	"github.com/sghaida/ctxdi/internal/spec"
)

// Source is one spec file that contributed to a unit.
type Source struct {
	Path string // as shown in the header, slash separated
	Data []byte
}

// Options tune rendering.
type Options struct {
	// Package is the Go package clause of the output. Required.
	Package string
	// Assert emits `var _ IRequirements = (*C)(nil)` for every context and interface
	// pair the satisfaction check accepts.
	Assert bool
	// Sources are listed in the header and hashed.
	Sources []Source
	// Types are the type names declared in the output package (see ScanTypes). A bare
	// factory ref naming one of them is built as a factory value: `[F]` reads as `[F{}]`.
	Types map[string]bool
}

// ErrNoPackage is returned when Options.Package is empty.
var ErrNoPackage = errors.New("codegen: no package name")

// FormatError is returned when go/format rejects the rendered source. Raw holds the
// unformatted output so it can be inspected.
type FormatError struct {
	Raw []byte
	Err error
}

func (e *FormatError) Error() string { return "codegen: gofmt/format failed: " + e.Err.Error() }

func (e *FormatError) Unwrap() error { return e.Err }

// GoImport is one import line of a Go file.
type GoImport struct {
	Name string // optional alias
	Path string
}

type assertion struct {
	Requirements string
	Context      string
}

type fileData struct {
	Sources    []Source
	Hash       string
	Package    string
	Imports    []GoImport
	Interfaces []*compiler.Interface
	Contexts   []*compiler.Context
	Asserts    []assertion
}

// Render executes the templates for pkg without formatting the result.
func Render(pkg *compiler.Package, opts Options) ([]byte, error) {
	if strings.TrimSpace(opts.Package) == "" {
		return nil, ErrNoPackage
	}
	data := fileData{
		Sources:    opts.Sources,
		Hash:       Hash(opts.Sources),
		Package:    opts.Package,
		Imports:    importsFor(pkg),
		Interfaces: pkg.Interfaces,
		Contexts:   factoryTypes(pkg.Contexts, opts.Types),
	}
	if opts.Assert {
		for _, s := range pkg.Matrix() {
			if !s.OK {
				continue
			}
			i, _ := pkg.Interface(s.Interface)
			data.Asserts = append(data.Asserts, assertion{Requirements: i.Requirements(), Context: s.Context})
		}
	}

	var sb strings.Builder
	if err := fileTpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("codegen: execute template: %w", err)
	}
	return []byte(sb.String()), nil
}

// factoryTypes returns contexts with every bare factory ref that names one of types
// turned into a factory value. Contexts that need no change are shared, not copied.
func factoryTypes(contexts []*compiler.Context, types map[string]bool) []*compiler.Context {
	if len(types) == 0 {
		return contexts
	}
	out := make([]*compiler.Context, len(contexts))
	for i, c := range contexts {
		out[i] = c
		for j, f := range c.Fields {
			s := f.Strategy
			if s.Kind != spec.StrategyFactory || s.Factory.Pkg != "" || !types[s.Factory.Name] {
				continue
			}
			if out[i] == c {
				cp := *c
				cp.Fields = slices.Clone(c.Fields)
				out[i] = &cp
			}
			out[i].Fields[j].Strategy.Kind = spec.StrategyFactoryValue
		}
	}
	return out
}

// Generate renders pkg and formats the result. On a format failure it returns a
// *FormatError carrying the raw source.
func Generate(pkg *compiler.Package, opts Options) ([]byte, error) {
	src, err := Render(pkg, opts)
	if err != nil {
		return nil, err
	}
	out, err := format.Source(src)
	if err != nil {
		return nil, &FormatError{Raw: src, Err: err}
	}
	return out, nil
}

// WriteFile generates pkg into outPath. When go/format rejects the source, the raw
// output is written anyway so it can be inspected, and the *FormatError is returned.
func WriteFile(outPath string, pkg *compiler.Package, opts Options) error {
	src, err := Generate(pkg, opts)
	var fe *FormatError
	switch {
	case errors.As(err, &fe):
		src = fe.Raw
	case err != nil:
		return err
	}
	if merr := os.MkdirAll(filepath.Dir(outPath), 0o755); merr != nil {
		return errors.Join(err, merr)
	}
	if werr := os.WriteFile(outPath, src, 0o644); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

// Hash is the hex SHA-256 over the contents of every source, in order.
func Hash(sources []Source) string {
	h := sha256.New()
	for _, s := range sources {
		h.Write(s.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// importsFor lists the imports of the generated file: every referenced spec import
// under the qualifier the spec uses for it, plus the runtime as "di".
func importsFor(pkg *compiler.Package) []GoImport {
	var out []GoImport
	seen := map[string]bool{}
	for _, imp := range pkg.Imports {
		if imp.Path == pkg.Runtime {
			continue
		}
		gi := GoImport{Path: imp.Path}
		if q := imp.Qualifier(); imp.Name != "" || q != path.Base(imp.Path) {
			gi.Name = q
		}
		seen[imp.Path] = true
		out = append(out, gi)
	}
	if pkg.NeedsRuntime() && !seen[pkg.Runtime] {
		gi := GoImport{Path: pkg.Runtime}
		if path.Base(pkg.Runtime) != compiler.RuntimeQualifier {
			gi.Name = compiler.RuntimeQualifier
		}
		out = append(out, gi)
	}
	return dedupeAndSortImports(out)
}
