package di_test

import (
	"testing"

	"github.com/sghaida/ctxdi/di"
)

type benchDB struct{ DSN string }

type benchLogger struct{ Level string }

/*
   Shared helpers (NOT counted in benchmarks)
*/

type benchDBFactory struct{}

func (benchDBFactory) Build() (*benchDB, error) { return &benchDB{DSN: "postgres"}, nil }

// benchCtx is shaped like a generated context with one exclusive binding.
type benchCtx struct {
	db     *benchDB
	logger *benchLogger
}

func (c *benchCtx) Clone() *benchCtx {
	cp := *c
	db := *c.db
	cp.db = &db
	return &cp
}

func (c *benchCtx) CloneContext() any { return c.Clone() }

func (c *benchCtx) ProvideWithPtrBenchLogger(replace func(*benchLogger) (*benchLogger, error)) (any, error) {
	v, err := replace(c.logger)
	if err != nil {
		return nil, err
	}
	cp := *c
	db := *c.db
	cp.db = &db
	cp.logger = v
	return &cp, nil
}

func newBenchCtx() *benchCtx {
	return &benchCtx{db: &benchDB{DSN: "postgres"}, logger: &benchLogger{Level: "info"}}
}

/*
   Benchmarks
*/

func BenchmarkBuild_FactoryValue(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = di.Build[*benchDB](benchDBFactory{})
	}
}

func BenchmarkBuild_Bound(b *testing.B) {
	f := di.Bind(di.ArgFactoryFunc[string, *benchDB](func(dsn string) (*benchDB, error) {
		return &benchDB{DSN: dsn}, nil
	}), "postgres")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Build(f)
	}
}

func BenchmarkResolveAs_Hit(b *testing.B) {
	reg := di.NewMapRegistry().Provide("db", &benchDB{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.ResolveAs[*benchDB](reg, "db")
	}
}

func BenchmarkResolveAs_Missing(b *testing.B) {
	reg := di.NewMapRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.ResolveAs[*benchDB](reg, "db")
	}
}

func BenchmarkResolveAs_WrongType(b *testing.B) {
	reg := di.NewMapRegistry().Provide("db", "not a db")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.ResolveAs[*benchDB](reg, "db")
	}
}

func BenchmarkClone(b *testing.B) {
	c := newBenchCtx()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Clone(c)
	}
}

func BenchmarkSubstitute(b *testing.B) {
	c := newBenchCtx()
	quiet := di.Replace(&benchLogger{Level: "error"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Substitute[*benchCtx](c.ProvideWithPtrBenchLogger, quiet)
	}
}

func BenchmarkFindBinding(b *testing.B) {
	bindings := []di.Binding{
		{Field: "db", Type: "*DB", Strategy: "factory", Source: "OpenDB", Policy: "exclusive"},
		{Field: "logger", Type: "Logger", Strategy: "registry", Source: `"app.logger"`, Policy: "shared"},
		{Field: "clock", Type: "Clock", Strategy: "external", Policy: "shared"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.FindBinding(bindings, "clock")
	}
}
