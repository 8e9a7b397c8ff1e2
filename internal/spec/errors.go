package spec

import (
	"strings"
)

// GrammarError reports malformed spec text: the offending fragment and the
// productions that would have been accepted there.
type GrammarError struct {
	File     string
	Pos      Pos
	Found    string
	Expected []string
	Detail   string // optional extra context, e.g. "Go keyword"
}

// Error implements the error interface.
func (e *GrammarError) Error() string {
	// Example: app.di:3:14: unexpected "}", expected type
	var sb strings.Builder
	sb.WriteString(location(e.File, e.Pos))
	sb.WriteString("unexpected ")
	sb.WriteString(e.Found)
	if len(e.Expected) > 0 {
		sb.WriteString(", expected ")
		sb.WriteString(joinAlternatives(e.Expected))
	}
	if e.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Detail)
		sb.WriteString(")")
	}
	return sb.String()
}

// ConflictError reports two declarations (or two parts of one) that cannot coexist:
// duplicate names, incompatible accessors, ambiguous provisions, inheritance cycles.
type ConflictError struct {
	File   string
	Pos    Pos
	Decl   string // "interface AppInterface", "context AppContext"
	Name   string // the conflicting accessor, field, type or method
	Detail string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	// Example: app.di:9:1: interface I3: conflict on "Dep": I1 declares A, I2 declares B
	msg := location(e.File, e.Pos) + e.Decl + ": conflict on " + quote(e.Name)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// UnresolvedError reports a reference that cannot be located: an inherited interface,
// a package qualifier, or a factory argument.
type UnresolvedError struct {
	File string
	Pos  Pos
	Decl string
	What string // "interface", "package qualifier", "field"
	Name string
	Hint string
}

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	// Example: app.di:4:20: interface App: unresolved interface "Worker"
	msg := location(e.File, e.Pos) + e.Decl + ": unresolved " + e.What + " " + quote(e.Name)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func location(file string, p Pos) string {
	switch {
	case p.Line == 0 && file == "":
		return ""
	case p.Line == 0:
		return file + ": "
	case file == "":
		return p.String() + ": "
	default:
		return file + ":" + p.String() + ": "
	}
}

func quote(s string) string { return `"` + s + `"` }

func joinAlternatives(alts []string) string {
	switch len(alts) {
	case 1:
		return alts[0]
	case 2:
		return alts[0] + " or " + alts[1]
	default:
		return strings.Join(alts[:len(alts)-1], ", ") + " or " + alts[len(alts)-1]
	}
}
