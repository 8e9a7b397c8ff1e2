// Package ctxdi generates explicit dependency-injection code for Go from a small
// declarative language.
//
// A spec file (.di) declares two things:
//
//   - interfaces: named sets of capabilities (fn name(&self) -> T), composable with
//     ":" inheritance and the Clone / ProvideWith<T> markers.
//   - contexts: structs whose fields are built in declaration order by a factory,
//     a factory value, a registry key, or passed in by the caller.
//
// The generator turns a unit of spec files into one Go file holding a Requirements
// interface, a view and an adapter constructor per interface, and a struct, a
// constructor, Clone and With/Provide methods per context. Whether a context can be
// used as an interface is decided by Go's structural typing; ctxdi check prints the
// same answer up front.
//
// Layout:
//   - di: the runtime vocabulary generated code imports (Factory, Registry, Cloner, errors)
//   - cmd/ctxdi: the command line tool (generate, check, parse)
//   - internal/spec: tokenizer, parser and IR of the spec language
//   - internal/compiler: name resolution, inheritance flattening and satisfaction
//   - internal/codegen: Go source rendering and package/runtime inference
//   - examples/app: a spec, its generated file and tests exercising it
//
// No reflection is involved in wiring; what does not fit fails to compile.
package ctxdi
