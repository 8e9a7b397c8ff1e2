package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sghaida/ctxdi/internal/codegen"
	"github.com/sghaida/ctxdi/internal/compiler"
	"github.com/sghaida/ctxdi/internal/spec"
)

// unit is a parsed and compiled set of spec files.
type unit struct {
	files   []*spec.File
	sources []codegen.Source
	pkg     *compiler.Package
}

// readSpec reads one spec file, reporting failures as E010.
func readSpec(f *OutputFormatter, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeIO, fmt.Sprintf("reading spec: %v", err))
	}
	return data, nil
}

// loadUnit parses every path and compiles them as one unit. Errors are already
// written to f when it returns them.
func loadUnit(f *OutputFormatter, paths []string, runtime string) (*unit, error) {
	if len(paths) == 0 {
		return nil, f.fail(ExitCommandError, ErrCodeIO, "no spec files given")
	}

	u := &unit{}
	var specErrs []error
	for _, p := range paths {
		data, err := readSpec(f, p)
		if err != nil {
			return nil, err
		}
		f.VerboseLog("Parsing %s", p)
		file, err := spec.Parse(p, data)
		if err != nil {
			specErrs = append(specErrs, flatten(err)...)
			continue
		}
		u.files = append(u.files, file)
		u.sources = append(u.sources, codegen.Source{Path: codegen.DisplayPath(p), Data: data})
	}
	if len(specErrs) > 0 {
		return nil, outputSpecErrors(f, specErrs)
	}

	f.VerboseLog("Compiling %d spec file(s) against runtime %s", len(u.files), runtime)
	pkg, err := compiler.Compile(u.files, compiler.Options{Runtime: runtime})
	if err != nil {
		return nil, outputSpecErrors(f, flatten(err))
	}
	for _, i := range pkg.Interfaces {
		f.VerboseLog("interface %s: %d capability(ies)", i.Name, len(i.Caps))
	}
	for _, c := range pkg.Contexts {
		f.VerboseLog("context %s: %d binding(s)", c.Name, len(c.Fields))
	}
	u.pkg = pkg
	return u, nil
}

// flatten splits errors.Join trees into their leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// errorCode maps a spec error to its CLI error code.
func errorCode(err error) string {
	var (
		conflict   *spec.ConflictError
		unresolved *spec.UnresolvedError
	)
	switch {
	case errors.As(err, &conflict):
		return ErrCodeConflict
	case errors.As(err, &unresolved):
		return ErrCodeUnresolved
	default:
		return ErrCodeGrammar
	}
}

// outputSpecErrors reports every spec error and returns an ExitFailure error.
func outputSpecErrors(f *OutputFormatter, errs []error) error {
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		out[i] = CLIError{Code: errorCode(err), Message: err.Error()}
	}
	_ = f.Errors(out)
	return NewExitError(ExitFailure, fmt.Sprintf("spec check failed with %d error(s)", len(errs)))
}
