package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/ctxdi/internal/spec"
)

func TestContext_Fields(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `
import "database/sql"

context App {
	clock: Clock,
	logger: Logger [NewLogger],
	db: *sql.DB [OpenDB(logger, clock)] exclusive,
	cfg: Config ["app.config"],
	cache: Cache [CacheFactory{}],
}`)
	c, ok := pkg.Context("App")
	require.True(t, ok)
	require.Len(t, c.Fields, 5)

	assert.True(t, c.UsesRegistry)
	assert.True(t, c.Built())
	require.Len(t, c.Params, 1)
	assert.Equal(t, "clock", c.Params[0].Name)
	assert.True(t, c.Params[0].External())

	db := c.Fields[2]
	assert.Equal(t, "PtrSqlDB", db.Key)
	assert.Equal(t, "ProvidePtrSqlDB", db.Provide())
	assert.Equal(t, "ProvideWithPtrSqlDB", db.ProvideWith())
	assert.Equal(t, "WithDb", db.With())
	assert.Equal(t, []string{"logger", "clock"}, db.Args)
	assert.True(t, db.Exclusive())
	assert.False(t, c.Fields[1].Exclusive())

	f, ok := c.Field("cfg")
	require.True(t, ok)
	assert.Equal(t, spec.StrategyRegistry, f.Strategy.Kind)
	_, ok = c.Field("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"CloneContext",
		"ProvideClock", "ProvideWithClock",
		"ProvideLogger", "ProvideWithLogger",
		"ProvidePtrSqlDB", "ProvideWithPtrSqlDB",
		"ProvideConfig", "ProvideWithConfig",
		"ProvideCache", "ProvideWithCache",
	}, methods(c.Capabilities()))
}

func TestContext_ExternalOnly(t *testing.T) {
	t.Parallel()

	pkg := mustCompile(t, `context Bag { a: A, b: B }`)
	c, _ := pkg.Context("Bag")
	assert.False(t, c.Built())
	assert.False(t, c.UsesRegistry)
	assert.Len(t, c.Params, 2)
}

func TestContext_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "duplicate field",
			src:  "context C { a: A, a: B }",
			want: `a.di:1:19: context C: conflict on "a": field declared twice (first at 1:13)`,
		},
		{
			name: "two bindings of one type",
			src:  "context C { a: Logger [NewA], b: Logger [NewB] }",
			want: `a.di:1:31: context C: conflict on "Logger": fields a and b both provide Logger; a context provides each type once`,
		},
		{
			name: "capability key collision",
			src:  "context C { a: PtrItem, b: *Item }",
			want: `a.di:1:25: context C: conflict on "PtrItem": types PtrItem and *Item share the capability key PtrItem`,
		},
		{
			name: "unknown type qualifier",
			src:  "context C { a: *sql.DB }",
			want: `a.di:1:13: context C: unresolved package qualifier "sql" (import it in a.di)`,
		},
		{
			name: "unknown factory qualifier",
			src:  "context C { a: A [db.Open] }",
			want: `a.di:1:18: context C: unresolved package qualifier "db" (import it in a.di)`,
		},
		{
			name: "unknown factory argument",
			src:  "context C { a: A [NewA(nope)] }",
			want: `a.di:1:24: context C: unresolved field "nope" (factory arguments name earlier fields of C)`,
		},
		{
			name: "later factory argument",
			src:  "context C { a: A [NewA(b)], b: B }",
			want: `a.di:1:24: context C: unresolved field "b" (b is declared after a)`,
		},
		{
			name: "self factory argument",
			src:  "context C { a: A [NewA(a)] }",
			want: `a.di:1:24: context C: unresolved field "a" (a cannot be built from itself)`,
		},
		{
			name: "field named like a generated method",
			src:  "context C { Clone: A }",
			want: `a.di:1:13: context C: conflict on "Clone": field collides with a generated method of C`,
		},
		{
			name: "field named like a provider",
			src:  "context C { ProvideA: B, a: A }",
			want: `a.di:1:13: context C: conflict on "ProvideA": field collides with a generated method of C`,
		},
		{
			name: "with methods collide",
			src:  "context C { log: A, Log: B }",
			want: `a.di:1:21: context C: conflict on "WithLog": generated for both log and Log`,
		},
		{
			name: "parameter shadows an import",
			src:  "import \"database/sql\"\ncontext C { sql: *sql.DB }",
			want: `a.di:2:13: context C: conflict on "sql": constructor parameter shadows an imported package`,
		},
		{
			name: "parameter shadows a factory",
			src:  "context C { NewA: B, a: A [NewA] }",
			want: `a.di:1:13: context C: conflict on "NewA": constructor parameter shadows the factory of a`,
		},
		{
			name: "parameter shadows a local",
			src:  "context C { reg: Registry }",
			want: `a.di:1:13: context C: conflict on "reg": constructor parameter shadows the registry parameter`,
		},
		{
			name: "parameter shadows the context type",
			src:  "context C { C: Thing }",
			want: `a.di:1:13: context C: conflict on "C": constructor parameter shadows the context type`,
		},
		{
			name: "parameter named error",
			src:  "context Ctx { error: Clock, logger: Logger [NewLogger] }",
			want: `a.di:1:15: context Ctx: conflict on "error": constructor parameter shadows a predeclared identifier`,
		},
		{
			name: "parameter named nil",
			src:  "context C { nil: Clock, logger: Logger [NewLogger] }",
			want: `a.di:1:13: context C: conflict on "nil": constructor parameter shadows a predeclared identifier`,
		},
		{
			name: "parameter named any",
			src:  "context C { any: Clock }",
			want: `a.di:1:13: context C: conflict on "any": constructor parameter shadows a predeclared identifier`,
		},
		{
			name: "parameter named true",
			src:  "context C { true: Flag }",
			want: `a.di:1:13: context C: conflict on "true": constructor parameter shadows a predeclared identifier`,
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
