package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/ctxdi/internal/spec"
)

func TestInterface_OwnAccessorsAndCapabilities(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `
import "database/sql"

interface Store {
	fn db(&self) -> *sql.DB;
	fn name(&self) -> string;
}`)
	i, _ := pkg.Interface("Store")

	assert.Equal(t, []string{"Db *sql.DB from Store", "Name string from Store"}, accessorNames(i.Accessors))
	assert.Equal(t, i.Accessors, i.OwnAccessors)
	assert.Equal(t, []string{"ProvidePtrSqlDB", "ProvideString"}, methods(i.Caps))
	assert.Equal(t, "ProvidePtrSqlDB", i.Accessors[0].Provider())
	assert.Equal(t, "db", i.Accessors[0].Source)
	assert.False(t, i.Clone)
	assert.Empty(t, i.Embeds)
}

func TestInterface_TwoAccessorsOfOneTypeShareTheCapability(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `interface I { fn primary() -> Logger; fn fallback() -> Logger }`)
	i, _ := pkg.Interface("I")
	assert.Len(t, i.Accessors, 2)
	assert.Equal(t, []string{"ProvideLogger"}, methods(i.Caps))
}

func TestInterface_Transitivity(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `
interface I3: I2 { fn c() -> C }
interface I2: I1 { fn b() -> B }
interface I1 { fn a() -> A }
`)
	i3, _ := pkg.Interface("I3")
	require.Len(t, i3.Embeds, 1)
	assert.Equal(t, "I2", i3.Embeds[0].Name)
	assert.Equal(t, []string{"A A from I1", "B B from I2", "C C from I3"}, accessorNames(i3.Accessors))
	assert.Equal(t, []string{"ProvideA", "ProvideB", "ProvideC"}, methods(i3.Caps))
	assert.Equal(t, []string{"C C from I3"}, accessorNames(i3.OwnAccessors))
	assert.Equal(t, []string{"ProvideC"}, methods(i3.Own))

	// Declaration order of the unit is kept even though I3 compiled its parents first.
	names := make([]string, 0, len(pkg.Interfaces))
	for _, i := range pkg.Interfaces {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"I3", "I2", "I1"}, names)
}

func TestInterface_InheritanceAcrossFiles(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `interface Child: Base {}`, `interface Base { fn x() -> X }`)
	child, _ := pkg.Interface("Child")
	assert.Equal(t, []string{"ProvideX"}, methods(child.Caps))
}

func TestInterface_DiamondWithSameTypeIsFine(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `
interface Root { fn log() -> Logger }
interface L: Root { fn a() -> A }
interface R: Root { fn b() -> B; fn log() -> Logger }
interface Bottom: L + R {}
`)
	b, _ := pkg.Interface("Bottom")
	assert.Equal(t, []string{"Log Logger from Root", "A A from L", "B B from R"}, accessorNames(b.Accessors))
	assert.Equal(t, []string{"ProvideLogger", "ProvideA", "ProvideB"}, methods(b.Caps))
	assert.Empty(t, b.Own)

	r, _ := pkg.Interface("R")
	assert.Equal(t, []string{"B B from R"}, accessorNames(r.OwnAccessors), "re-declared accessor is inherited, not owned")
}

func TestInterface_ConflictingInheritedAccessors(t *testing.T) {
	t.Parallel()

	_, err := compile(t, `
interface I1 { fn dep() -> A }
interface I2 { fn dep() -> B }
interface I3: I1 + I2 {}
`)
	var ce *spec.ConflictError
	require.ErrorAs(t, oneError(t, err), &ce)
	assert.Equal(t, "interface I3", ce.Decl)
	assert.Equal(t, "Dep", ce.Name)
	assert.Equal(t, "I1 declares A, I2 declares B", ce.Detail)
	assert.Equal(t, spec.Pos{Line: 4, Col: 20}, ce.Pos, "reported at the inheritance that introduced it")
}

func TestInterface_OwnAccessorConflictsWithInherited(t *testing.T) {
	t.Parallel()

	_, err := compile(t, `
interface Base { fn dep() -> A }
interface Sub: Base { fn dep() -> *A }
`)
	var ce *spec.ConflictError
	require.ErrorAs(t, oneError(t, err), &ce)
	assert.Equal(t, "Base declares A, Sub declares *A", ce.Detail)
}

func TestInterface_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown parent",
			src:  "interface I: Missing {}",
			want: `a.di:1:14: interface I: unresolved interface "Missing"`,
		},
		{
			name: "parent is a context",
			src:  "context C {} interface I: C {}",
			want: `a.di:1:27: interface I: unresolved interface "C" (C is a context)`,
		},
		{
			name: "self cycle",
			src:  "interface I: I {}",
			want: `a.di:1:14: interface I: conflict on "I": inheritance cycle I -> I`,
		},
		{
			name: "two step cycle",
			src:  "interface A: B {}\ninterface B: A {}",
			want: `a.di:2:14: interface B: conflict on "A": inheritance cycle A -> B -> A`,
		},
		{
			name: "inherited twice",
			src:  "interface A {} interface B: A + A {}",
			want: `a.di:1:33: interface B: conflict on "A": inherited twice`,
		},
		{
			name: "method declared twice",
			src:  "interface I { fn a() -> A; fn a() -> A }",
			want: `a.di:1:28: interface I: conflict on "A": declared twice`,
		},
		{
			name: "methods differ only in case",
			src:  "interface I { fn a() -> A; fn A() -> A }",
			want: `a.di:1:28: interface I: conflict on "A": methods a and A both become A`,
		},
		{
			name: "accessor shadows capability",
			src:  "interface I { fn provideA() -> A }",
			want: `a.di:1:15: interface I: conflict on "ProvideA": accessor collides with a generated method of I`,
		},
		{
			name: "accessor shadows clone",
			src:  "interface I: Clone { fn cloneContext() -> A }",
			want: `a.di:1:22: interface I: conflict on "CloneContext": accessor collides with a generated method of I`,
		},
		{
			name: "capability key collision",
			src:  "interface I { fn a() -> SliceItem; fn b() -> []Item }",
			want: `a.di:1:36: interface I: conflict on "SliceItem": types SliceItem and []Item share the capability key SliceItem`,
		},
		{
			name: "unknown qualifier",
			src:  "interface I { fn a() -> *sql.DB }",
			want: `a.di:1:15: interface I: unresolved package qualifier "sql" (import it in a.di)`,
		},
		{
			name: "clone listed twice",
			src:  "interface I: Clone + Clone {}",
			want: `a.di:1:22: interface I: conflict on "Clone": listed twice`,
		},
		{
			name: "provide with listed twice",
			src:  "interface I: ProvideWith<A> + ProvideWith<A> {}",
			want: `a.di:1:31: interface I: conflict on "ProvideWith<A>": listed twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := compile(t, tt.src)
			assert.Equal(t, tt.want, oneError(t, err).Error())
		})
	}
}

func TestInterface_Markers(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `
interface Base: Clone { fn log() -> Logger }
interface Svc: Base + ProvideWith<Logger> + ProvideWith<Box[Item]> {}
`)
	base, _ := pkg.Interface("Base")
	assert.True(t, base.Clone)
	assert.Equal(t, []string{"ProvideLogger", "CloneContext"}, methods(base.Own))

	svc, _ := pkg.Interface("Svc")
	assert.True(t, svc.Clone, "Clone is inherited")
	assert.Equal(t,
		[]string{"ProvideLogger", "CloneContext", "ProvideWithLogger", "ProvideBoxOfItem", "ProvideWithBoxOfItem"},
		methods(svc.Caps),
	)
	assert.Equal(t, []string{"ProvideWithLogger", "ProvideBoxOfItem", "ProvideWithBoxOfItem"}, methods(svc.Own))
	assert.Equal(t, []string{"ProvideWithLogger", "ProvideWithBoxOfItem"}, methods(svc.Substitutions()))
	assert.Empty(t, svc.Accessors[1:], "markers add capabilities, not accessors")
	assert.True(t, pkg.NeedsRuntime())
}

func TestCapability_Rendering(t *testing.T) {
	t.Parallel()

	typ := spec.Named("", "Logger")
	assert.Equal(t, "Provide<Logger>", Capability{Kind: CapProvide, Key: "Logger", Type: typ}.String())
	assert.Equal(t, "ProvideWith<Logger>", Capability{Kind: CapProvideWith, Key: "Logger", Type: typ}.String())
	assert.Equal(t, "Clone", Capability{Kind: CapClone}.String())
	assert.Equal(t, "clone", CapClone.String())
	assert.Equal(t, "provide", CapProvide.String())
}
