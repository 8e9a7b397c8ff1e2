// Package di is the small runtime vocabulary that ctxdi-generated code is built on.
//
// Generated contexts and interfaces only ever talk to each other through method sets
// (ProvideX / ProvideWithX / CloneContext). This package supplies the pieces that are
// shared by every generated file:
//
//   - Factory / ArgFactory: the construction protocol for one dependency, plus the
//     Bind / Lift adaptors between the no-argument and with-argument conventions.
//   - Registry / MapRegistry: build-time lookup for bindings declared as ["some.key"].
//   - Cloner / Clone and Replacement / Substitute: typed helpers over the type-erased
//     CloneContext and ProvideWithX methods.
//   - ConstructionError and friends: typed errors you can assert with errors.As.
//
// Nothing here uses reflection for injection. reflect is only used to name the dynamic
// type of a value in WrongTypeError messages.
//
// Import
//
//	"github.com/sghaida/ctxdi/di"
package di
