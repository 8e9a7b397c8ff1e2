package codegen

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/ctxdi/internal/compiler"
)

func TestInferRuntime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		explicit string
		want     string
	}{
		{
			name:     "explicit wins",
			files:    map[string]string{"di.go": "package p\nimport di \"example.com/proj/di\"\n"},
			explicit: "example.com/forced/di",
			want:     "example.com/forced/di",
		},
		{
			name:  "alias di",
			files: map[string]string{"wire.go": "package p\nimport di \"example.com/proj/runtime\"\n"},
			want:  "example.com/proj/runtime",
		},
		{
			name:  "suffix di",
			files: map[string]string{"wire.go": "package p\nimport \"example.com/fork/di\"\n"},
			want:  "example.com/fork/di",
		},
		{
			name: "generated and test files are ignored",
			files: map[string]string{
				"app_ctxdi.gen.go": "package p\nimport \"example.com/old/di\"\n",
				"app_test.go":      "package p\nimport \"example.com/test/di\"\n",
			},
			want: compiler.DefaultRuntime,
		},
		{
			name:  "default",
			files: map[string]string{"main.go": "package p\nimport \"fmt\"\n"},
			want:  compiler.DefaultRuntime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newPkg(t)
			for name, src := range tt.files {
				p.write(name, src)
			}
			assert.Equal(t, tt.want, InferRuntime(p.dir, tt.explicit))
		})
	}
}

func TestInferRuntime_MissingDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, compiler.DefaultRuntime, InferRuntime(filepath.Join(t.TempDir(), "nope"), ""))
}

func TestInferPackage(t *testing.T) {
	t.Setenv("GOPACKAGE", "")

	p := newPkg(t)
	p.write("src/app.go", "package application\n")
	p.write("src/app_test.go", "package application_test\n")
	p.write("My-Service2/readme.txt", "")

	tests := []struct {
		name     string
		clause   string
		explicit string
		dir      string
		want     string
		wantErr  string
	}{
		{name: "clause", clause: "app", dir: p.path("src"), want: "app"},
		{name: "explicit agrees", clause: "app", explicit: "app", dir: p.path("src"), want: "app"},
		{name: "explicit disagrees", clause: "app", explicit: "other", dir: p.path("src"), wantErr: "spec declares package app but package other was requested"},
		{name: "explicit", explicit: "other", dir: p.path("src"), want: "other"},
		{name: "scanned sources", dir: p.path("src"), want: "application"},
		{name: "directory name", dir: p.path("My-Service2"), want: "myservice2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferPackage(tt.clause, tt.explicit, tt.dir)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferPackage_GoGenerate(t *testing.T) {
	t.Setenv("GOPACKAGE", "generated")

	p := newPkg(t)
	p.write("app.go", "package application\n")
	got, err := InferPackage("", "", p.dir)
	require.NoError(t, err)
	assert.Equal(t, "generated", got)
}

func TestSanitizePackage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "app", sanitizePackage("app"))
	assert.Equal(t, "myapp", sanitizePackage("my-app"))
	assert.Equal(t, "v2api", sanitizePackage("v2-API"))
	assert.Equal(t, "api", sanitizePackage("2api"))
	assert.Equal(t, "", sanitizePackage("123"))
}

func TestDisplayPath(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("go.mod", "module example.com/proj\n\ngo 1.22\n")
	spec := p.write("internal/app/app.di", "interface A {}")
	assert.Equal(t, "internal/app/app.di", DisplayPath(spec))
}

func TestFindModule(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("go.mod", "module example.com/proj\n")
	p.write("a/b/x.go", "package b\n")

	root, mod, err := findModule(p.path("a/b"))
	require.NoError(t, err)
	assert.Equal(t, p.dir, root)
	assert.Equal(t, "example.com/proj", mod)

	bad := newPkg(t)
	bad.write("go.mod", "go 1.22\n")
	_, _, err = findModule(bad.dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing module directive")
}

func TestImportHelpers(t *testing.T) {
	t.Parallel()

	imps := dedupeAndSortImports([]GoImport{
		{Path: "z/di"},
		{Name: "di", Path: "a/runtime"},
		{Path: "z/di"},
		{Path: "fmt"},
	})
	assert.Equal(t, []GoImport{{Name: "di", Path: "a/runtime"}, {Path: "fmt"}, {Path: "z/di"}}, imps)

	gi, ok := findImportByAliasOrSuffix(imps, "di", "/di")
	require.True(t, ok)
	assert.Equal(t, "a/runtime", gi.Path, "alias beats suffix")

	gi, ok = findImportByAliasOrSuffix(imps, "", "/di")
	require.True(t, ok)
	assert.Equal(t, "z/di", gi.Path)

	_, ok = findImportByAliasOrSuffix(imps, "cfg", "/config")
	assert.False(t, ok)
}

func TestScanTypes(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	p.write("logger.go", `package app

type (
	Logger interface{ Log(string) }
	LoggerFactory struct{}
)

type Clock func() int

func NewLogger() (Logger, error) { return nil, nil }
`)
	p.write("app_ctxdi.gen.go", "package app\ntype Generated struct{}\n")
	p.write("app_test.go", "package app\ntype fixture struct{}\n")
	p.write("broken.go", "package app\ntype {")

	assert.Equal(t, map[string]bool{"Logger": true, "LoggerFactory": true, "Clock": true}, ScanTypes(p.dir))
	assert.Empty(t, ScanTypes(filepath.Join(p.dir, "nope")))
}
