package codegen

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sghaida/ctxdi/internal/compiler"
)

// -------------------------
// Runtime and package inference
// -------------------------
//
// Both look at the "original" sources of the output directory: every .go file that is
// neither a test nor generated.
//
// Runtime import path, in priority order:
//   (1) explicit option
//   (2) an import the package already uses under the alias "di" or with a "/di" suffix
//       (lets a project pin a fork)
//   (3) compiler.DefaultRuntime
//
// Package name, in priority order:
//   (1) the spec package clause; an explicit option must agree with it
//   (2) explicit option
//   (3) $GOPACKAGE, set by go generate
//   (4) the package clause of the original sources
//   (5) the base name of the output directory

// InferRuntime returns the runtime import path generated code in outDir should use.
func InferRuntime(outDir, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	if gi, ok := findImportByAliasOrSuffix(scanPackageImports(outDir), compiler.RuntimeQualifier, "/"+compiler.RuntimeQualifier); ok {
		return gi.Path
	}
	return compiler.DefaultRuntime
}

// InferPackage returns the package clause for a file generated into outDir.
func InferPackage(clause, explicit, outDir string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	switch {
	case clause != "" && explicit != "" && clause != explicit:
		return "", &cmdError{msg: "spec declares package " + clause + " but package " + explicit + " was requested"}
	case clause != "":
		return clause, nil
	case explicit != "":
		return explicit, nil
	}
	if p := strings.TrimSpace(os.Getenv("GOPACKAGE")); p != "" {
		return p, nil
	}
	if p := scanPackageName(outDir); p != "" {
		return p, nil
	}
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	name := sanitizePackage(filepath.Base(abs))
	if name == "" {
		return "", &cmdError{msg: "cannot infer a package name for " + filepath.ToSlash(outDir)}
	}
	return name, nil
}

// sanitizePackage turns a directory name into a package name, the way go mod init
// would: lower case, and only letters, digits and underscores.
func sanitizePackage(dir string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(dir) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if sb.Len() > 0 {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// DisplayPath renders a spec path for the generated header: relative to the root of
// the module that contains it when there is one, else as given.
func DisplayPath(specPath string) string {
	abs, err := filepath.Abs(specPath)
	if err != nil {
		return filepath.ToSlash(specPath)
	}
	modRoot, _, err := findModule(filepath.Dir(abs))
	if err != nil {
		return filepath.ToSlash(specPath)
	}
	rel, err := filepath.Rel(modRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(specPath)
	}
	return filepath.ToSlash(rel)
}

// -------------------------
// go.mod helpers
// -------------------------

type cmdError struct{ msg string }

func (e *cmdError) Error() string { return "codegen: " + e.msg }

// errNoModule is returned by findModule when no go.mod exists above the start dir.
var errNoModule = errors.New("codegen: no go.mod found")

func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "module ") {
					mod := strings.Trim(strings.TrimSpace(strings.TrimPrefix(ln, "module ")), `"`)
					if mod == "" {
						return "", "", &cmdError{msg: "go.mod has empty module path at " + filepath.ToSlash(gomod)}
					}
					return dir, mod, nil
				}
			}
			return "", "", &cmdError{msg: "go.mod missing module directive at " + filepath.ToSlash(gomod)}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", errNoModule
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// -------------------------
// Scan "original" files in a package dir
// -------------------------

// originalSources lists the non-test, non-generated .go files of pkgDir.
func originalSources(pkgDir string) []string {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		// avoid feeding generated outputs back into inference
		if strings.HasSuffix(name, ".gen.go") || strings.Contains(name, ".gen.") || strings.HasSuffix(name, "_gen.go") {
			continue
		}
		out = append(out, filepath.Join(pkgDir, name))
	}
	return out
}

// scanPackageImports reads imports from the original sources of pkgDir, keeping
// aliases (e.g. `di "..."`).
func scanPackageImports(pkgDir string) []GoImport {
	var out []GoImport
	fset := token.NewFileSet()
	for _, full := range originalSources(pkgDir) {
		f, err := parser.ParseFile(fset, full, nil, parser.ImportsOnly)
		if err != nil {
			continue
		}
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			alias := ""
			if imp.Name != nil {
				alias = imp.Name.Name
			}
			out = append(out, GoImport{Name: alias, Path: path})
		}
	}
	return dedupeAndSortImports(out)
}

// scanPackageName returns the first package clause found in the original sources of
// pkgDir, ignoring external test packages.
func scanPackageName(pkgDir string) string {
	fset := token.NewFileSet()
	for _, full := range originalSources(pkgDir) {
		f, err := parser.ParseFile(fset, full, nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		if name := f.Name.Name; !strings.HasSuffix(name, "_test") {
			return name
		}
	}
	return ""
}

// ScanTypes returns the names of the types declared by the original sources of
// pkgDir. A bare strategy ref naming one of them is a factory value, not a function.
func ScanTypes(pkgDir string) map[string]bool {
	out := map[string]bool{}
	fset := token.NewFileSet()
	for _, full := range originalSources(pkgDir) {
		f, err := parser.ParseFile(fset, full, nil, parser.SkipObjectResolution)
		if err != nil {
			continue
		}
		for _, d := range f.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, sp := range gd.Specs {
				out[sp.(*ast.TypeSpec).Name.Name] = true
			}
		}
	}
	return out
}

// findImportByAliasOrSuffix picks an import from scanned imports.
// Prefer alias match first, then suffix match.
func findImportByAliasOrSuffix(imports []GoImport, preferAlias, preferSuffix string) (GoImport, bool) {
	if preferAlias != "" {
		for _, gi := range imports {
			if gi.Name == preferAlias {
				return gi, true
			}
		}
	}
	if preferSuffix != "" {
		for _, gi := range imports {
			if strings.HasSuffix(gi.Path, preferSuffix) {
				return gi, true
			}
		}
	}
	return GoImport{}, false
}

func dedupeAndSortImports(imps []GoImport) []GoImport {
	type key struct {
		path string
		name string
	}
	seen := map[key]bool{}
	out := make([]GoImport, 0, len(imps))
	for _, gi := range imps {
		k := key{path: gi.Path, name: gi.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}
