package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/ctxdi/internal/compiler"
	"github.com/sghaida/ctxdi/internal/spec"
)

type pkgHarness struct {
	t   *testing.T
	dir string
}

func newPkg(t *testing.T) *pkgHarness {
	t.Helper()
	return &pkgHarness{t: t, dir: t.TempDir()}
}

func (p *pkgHarness) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (p *pkgHarness) path(rel string) string {
	return filepath.Join(p.dir, rel)
}

func (p *pkgHarness) read(rel string) string {
	p.t.Helper()
	b, err := os.ReadFile(filepath.Join(p.dir, rel))
	require.NoError(p.t, err)
	return string(b)
}

// compileSrc parses src as a.di and compiles it on its own.
func compileSrc(t *testing.T, src string, opts compiler.Options) *compiler.Package {
	t.Helper()
	f, err := spec.Parse("a.di", []byte(src))
	require.NoError(t, err)
	pkg, err := compiler.Compile([]*spec.File{f}, opts)
	require.NoError(t, err)
	return pkg
}

// generate compiles src and renders it into package "app".
func generate(t *testing.T, src string, assert bool) string {
	t.Helper()
	pkg := compileSrc(t, src, compiler.Options{})
	out, err := Generate(pkg, Options{
		Package: "app",
		Assert:  assert,
		Sources: []Source{{Path: "a.di", Data: []byte(src)}},
	})
	require.NoError(t, err)
	return string(out)
}

// declared lists the top-level names of a Go file: "type T", "func F", "var V" and
// "method R.M" (pointer receivers are reported without the star).
func declared(t *testing.T, src string) map[string]bool {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source must parse:\n%s", src)

	out := map[string]bool{}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				out["func "+d.Name.Name] = true
				continue
			}
			recv := d.Recv.List[0].Type
			if star, ok := recv.(*ast.StarExpr); ok {
				recv = star.X
			}
			out["method "+recv.(*ast.Ident).Name+"."+d.Name.Name] = true
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					out["type "+s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						out["var "+n.Name] = true
					}
				}
			}
		}
	}
	return out
}

func assertContainsInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(s[pos:], p)
		if i < 0 {
			t.Fatalf("expected to find %q after pos=%d in:\n%s", p, pos, s)
		}
		pos += i + len(p)
	}
}
