package spec

import (
	"errors"
	"go/token"
	"strconv"

	"github.com/sghaida/ctxdi/internal/join"
)

type cursor = join.Cursor[Token]

type step[T any] = join.Step[Token, T]

type parser struct {
	file string
	toks []Token
}

// Parse reads one spec file into its IR.
//
// A malformed declaration does not stop the parse: the parser skips to the end of that
// declaration and continues, so every broken declaration in the file is reported. The
// errors are joined and the File is nil whenever any occurred.
func Parse(path string, src []byte) (*File, error) {
	toks, err := Tokenize(path, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: path, toks: toks}
	return p.parseFile()
}

func (p *parser) parseFile() (*File, error) {
	f := &File{Path: p.file}
	c := join.Over(p.toks)
	var errs []error

	if t, _ := c.Peek(); t.Is("package") {
		name, rest, err := join.Run(p.packageClause, c)
		if err != nil {
			errs = append(errs, p.grammar(err))
			rest = p.skipDecl(c)
		}
		f.Package, c = name, rest
	}

	for {
		t, _ := c.Peek()
		if !t.Is("import") {
			break
		}
		imps, rest, err := join.Run(p.importDecl, c)
		if err != nil {
			errs = append(errs, p.grammar(err))
			rest = p.skipDecl(c)
		}
		f.Imports = append(f.Imports, imps...)
		c = rest
	}

	for {
		t, _ := c.Peek()
		switch {
		case t.Kind == TokenEOF:
			if len(errs) > 0 {
				return nil, errors.Join(errs...)
			}
			return f, nil

		case t.Is(";"):
			_, c = c.Next()

		case t.Is("interface"):
			d, rest, err := join.Run(p.interfaceDecl(), c)
			if err != nil {
				errs = append(errs, p.grammar(err))
				rest = p.skipDecl(c)
			} else {
				f.Interfaces = append(f.Interfaces, d)
			}
			c = rest

		case t.Is("context"):
			d, rest, err := join.Run(p.contextDecl(), c)
			if err != nil {
				errs = append(errs, p.grammar(err))
				rest = p.skipDecl(c)
			} else {
				f.Contexts = append(f.Contexts, d)
			}
			c = rest

		default:
			errs = append(errs, p.unexpected(t, "interface", "context"))
			c = p.skipDecl(c)
		}
	}
}

// skipDecl drops the declaration starting at c: everything up to and including the
// brace that closes its body, or up to the next top-level keyword when it never
// opened one.
func (p *parser) skipDecl(c cursor) cursor {
	_, c = c.Next()
	depth := 0
	for {
		t, _ := c.Peek()
		switch {
		case t.Kind == TokenEOF:
			return c
		case depth == 0 && (t.Is("import") || t.Is("interface") || t.Is("context")):
			return c
		case t.Is("{"):
			depth++
		case t.Is("}"):
			depth--
			if depth <= 0 {
				_, c = c.Next()
				return c
			}
		}
		_, c = c.Next()
	}
}

// packageClause = "package" ident [";"] .
func (p *parser) packageClause(c cursor) (string, cursor, error) {
	_, c = c.Next()
	name, c, err := p.name(c, "package name")
	if err != nil {
		return "", c, err
	}
	return name.Text, p.optional(c, ";"), nil
}

// importDecl = "import" ( spec | "(" { spec [";"] } ")" ) [";"] .
func (p *parser) importDecl(c cursor) ([]Import, cursor, error) {
	_, c = c.Next()
	if t, _ := c.Peek(); !t.Is("(") {
		imp, rest, err := p.importSpec(c)
		if err != nil {
			return nil, c, err
		}
		return []Import{imp}, p.optional(rest, ";"), nil
	}

	_, c = c.Next()
	var out []Import
	for {
		t, _ := c.Peek()
		if t.Is(")") {
			_, c = c.Next()
			return out, p.optional(c, ";"), nil
		}
		imp, rest, err := p.importSpec(c)
		if err != nil {
			return nil, c, err
		}
		out = append(out, imp)
		c = p.optional(rest, ";")
	}
}

// importSpec = [ ident ] string .
func (p *parser) importSpec(c cursor) (Import, cursor, error) {
	start, _ := c.Peek()
	var imp Import
	if start.Kind == TokenIdent {
		name, rest, err := p.name(c, "import name")
		if err != nil {
			return imp, c, err
		}
		imp.Name, c = name.Text, rest
	}
	t, rest := c.Next()
	if t.Kind != TokenString {
		return imp, c, p.unexpected(t, "import path")
	}
	if t.Text == "" {
		return imp, c, &GrammarError{File: p.file, Pos: t.Pos, Found: t.Describe(), Expected: []string{"import path"}, Detail: "empty path"}
	}
	imp.Path, imp.Pos = t.Text, start.Pos
	return imp, rest, nil
}

// interfaceDecl = "interface" ident [ ":" super { "+" super } ] "{" methods "}" .
func (p *parser) interfaceDecl() step[*InterfaceDecl] {
	return join.Seq(
		p.interfaceHeader,
		func(*InterfaceDecl) step[[]Method] {
			return braced(p, join.List(p.method, isSep, isPunct("}"), p.missing(`","`, `";"`, `"}"`)))
		},
		func(d *InterfaceDecl, methods []Method) *InterfaceDecl {
			d.Methods = methods
			return d
		},
	)
}

func (p *parser) interfaceHeader(c cursor) (*InterfaceDecl, cursor, error) {
	kw, c := c.Next()
	name, c, err := p.name(c, "interface name")
	if err != nil {
		return nil, c, err
	}
	if name.Text == "Clone" || name.Text == "ProvideWith" {
		return nil, c, &GrammarError{File: p.file, Pos: name.Pos, Found: name.Describe(), Expected: []string{"interface name"}, Detail: "reserved marker name"}
	}
	d := &InterfaceDecl{Name: name.Text, Pos: kw.Pos}

	if t, _ := c.Peek(); !t.Is(":") {
		return d, c, nil
	}
	_, c = c.Next()
	for {
		c, err = p.super(d, c)
		if err != nil {
			return nil, c, err
		}
		t, _ := c.Peek()
		if !t.Is("+") {
			return d, c, nil
		}
		_, c = c.Next()
	}
}

// super = ident | "Clone" | "ProvideWith" "<" type ">" .
func (p *parser) super(d *InterfaceDecl, c cursor) (cursor, error) {
	t, _ := c.Peek()
	switch {
	case t.Is("Clone"):
		_, c = c.Next()
		d.Markers = append(d.Markers, Marker{Kind: MarkerClone, Pos: t.Pos})
		return c, nil

	case t.Is("ProvideWith"):
		_, c = c.Next()
		c, err := p.expect(c, "<")
		if err != nil {
			return c, err
		}
		typ, c, err := p.typeExpr(c)
		if err != nil {
			return c, err
		}
		c, err = p.expect(c, ">")
		if err != nil {
			return c, err
		}
		d.Markers = append(d.Markers, Marker{Kind: MarkerProvideWith, Type: typ, Pos: t.Pos})
		return c, nil
	}

	name, rest, err := p.name(c, "interface name", "Clone", "ProvideWith")
	if err != nil {
		return c, err
	}
	d.Inherits = append(d.Inherits, Ref{Name: name.Text, Pos: name.Pos})
	return rest, nil
}

// method = "fn" ident "(" [ "&" "self" ] ")" "->" type .
func (p *parser) method(c cursor) (Method, cursor, error) {
	var m Method
	kw, _ := c.Peek()
	c, err := p.expect(c, "fn")
	if err != nil {
		return m, c, err
	}
	name, c, err := p.name(c, "method name")
	if err != nil {
		return m, c, err
	}
	if c, err = p.expect(c, "("); err != nil {
		return m, c, err
	}
	if t, _ := c.Peek(); t.Is("&") {
		_, c = c.Next()
		if c, err = p.expect(c, "self"); err != nil {
			return m, c, err
		}
	}
	if c, err = p.expect(c, ")"); err != nil {
		return m, c, err
	}
	if c, err = p.expect(c, "->"); err != nil {
		return m, c, err
	}
	typ, c, err := p.typeExpr(c)
	if err != nil {
		return m, c, err
	}
	return Method{Name: name.Text, Type: typ, Pos: kw.Pos}, c, nil
}

// contextDecl = "context" ident "{" bindings "}" .
func (p *parser) contextDecl() step[*ContextDecl] {
	return join.Seq(
		p.contextHeader,
		func(*ContextDecl) step[[]Binding] {
			return braced(p, join.List(p.binding, isSep, isPunct("}"), p.missing(`","`, `";"`, `"}"`)))
		},
		func(d *ContextDecl, bindings []Binding) *ContextDecl {
			d.Bindings = bindings
			return d
		},
	)
}

func (p *parser) contextHeader(c cursor) (*ContextDecl, cursor, error) {
	kw, c := c.Next()
	name, c, err := p.name(c, "context name")
	if err != nil {
		return nil, c, err
	}
	return &ContextDecl{Name: name.Text, Pos: kw.Pos}, c, nil
}

// binding = ident ":" type [ strategy ] [ "shared" | "exclusive" ] .
func (p *parser) binding(c cursor) (Binding, cursor, error) {
	var b Binding
	field, c, err := p.name(c, "field name")
	if err != nil {
		return b, c, err
	}
	if c, err = p.expect(c, ":"); err != nil {
		return b, c, err
	}
	typ, c, err := p.typeExpr(c)
	if err != nil {
		return b, c, err
	}
	b = Binding{Field: field.Text, Type: typ, Pos: field.Pos}

	if t, _ := c.Peek(); t.Is("[") {
		if b.Strategy, c, err = p.strategy(c); err != nil {
			return b, c, err
		}
	}
	switch t, _ := c.Peek(); {
	case t.Is("shared"):
		_, c = c.Next()
	case t.Is("exclusive"):
		b.Policy = PolicyExclusive
		_, c = c.Next()
	}
	return b, c, nil
}

// strategy = "[" ( string | ref [ "{" "}" ] [ "(" [ ident { "," ident } ] ")" ] ) "]" .
func (p *parser) strategy(c cursor) (Strategy, cursor, error) {
	open, c := c.Next()
	s := Strategy{Pos: open.Pos}

	if t, rest := c.Next(); t.Kind == TokenString {
		if t.Text == "" {
			return s, c, &GrammarError{File: p.file, Pos: t.Pos, Found: t.Describe(), Expected: []string{"registry key"}, Detail: "empty key"}
		}
		s.Kind, s.Key = StrategyRegistry, t.Text
		rest, err := p.expect(rest, "]")
		return s, rest, err
	}

	ref, c, err := p.ref(c, "factory", "registry key")
	if err != nil {
		return s, c, err
	}
	s.Kind, s.Factory = StrategyFactory, ref

	switch t, _ := c.Peek(); {
	case t.Is("{"):
		_, c = c.Next()
		if c, err = p.expect(c, "}"); err != nil {
			return s, c, err
		}
		s.Kind = StrategyFactoryValue

	case t.Is("("):
		_, c = c.Next()
		args, rest, err := join.List(p.argRef, isPunct(","), isPunct(")"), p.missing(`","`, `")"`))(c)
		if err != nil {
			return s, c, err
		}
		_, c = rest.Next()
		if len(args) > 0 {
			s.Kind, s.Args = StrategyFactoryArgs, args
		}
	}

	c, err = p.expect(c, "]")
	return s, c, err
}

func (p *parser) argRef(c cursor) (Ref, cursor, error) {
	name, rest, err := p.name(c, "field name")
	if err != nil {
		return Ref{}, c, err
	}
	return Ref{Name: name.Text, Pos: name.Pos}, rest, nil
}

// typeExpr parses a Go type expression. A "[" directly after a type name opens type
// arguments; a separated one is left for the caller.
func (p *parser) typeExpr(c cursor) (*TypeExpr, cursor, error) {
	t, next := c.Next()
	switch {
	case t.Is("*"):
		elem, rest, err := p.typeExpr(next)
		if err != nil {
			return nil, c, err
		}
		return &TypeExpr{Kind: TypePointer, Elem: elem}, rest, nil

	case t.Is("["):
		return p.sliceOrArray(next)

	case t.Is("map"):
		return join.Seq(
			bracketed(p, p.typeExpr),
			func(*TypeExpr) step[*TypeExpr] { return p.typeExpr },
			func(key, elem *TypeExpr) *TypeExpr { return &TypeExpr{Kind: TypeMap, Key: key, Elem: elem} },
		)(next)

	case t.Is("chan"):
		elem, rest, err := p.typeExpr(next)
		if err != nil {
			return nil, c, err
		}
		return &TypeExpr{Kind: TypeChan, Elem: elem}, rest, nil

	case t.Is("any"):
		return &TypeExpr{Kind: TypeAny}, next, nil

	case t.Is("interface"), t.Is("struct"):
		rest, err := p.expect(next, "{")
		if err == nil {
			rest, err = p.expect(rest, "}")
		}
		if err != nil {
			return nil, c, err
		}
		if t.Text == "struct" {
			return &TypeExpr{Kind: TypeEmptyStruct}, rest, nil
		}
		return &TypeExpr{Kind: TypeAny}, rest, nil
	}

	ref, rest, err := p.ref(c, "type")
	if err != nil {
		return nil, c, err
	}
	typ := &TypeExpr{Kind: TypeNamed, Name: ref}
	if open, _ := rest.Peek(); !open.Is("[") || !open.Adjacent {
		return typ, rest, nil
	}
	_, rest = rest.Next()
	args, after, err := join.List(p.typeExpr, isPunct(","), isPunct("]"), p.missing(`","`, `"]"`))(rest)
	if err != nil {
		return nil, c, err
	}
	if len(args) == 0 {
		t, _ := after.Peek()
		return nil, c, p.unexpected(t, "type")
	}
	_, after = after.Next()
	typ.Args = args
	return typ, after, nil
}

// sliceOrArray continues after "[": "]" type | int "]" type.
func (p *parser) sliceOrArray(c cursor) (*TypeExpr, cursor, error) {
	t, next := c.Next()
	typ := &TypeExpr{Kind: TypeSlice}
	switch {
	case t.Is("]"):
	case t.Kind == TokenInt:
		typ.Kind, typ.Len = TypeArray, t.Text
		var err error
		if next, err = p.expect(next, "]"); err != nil {
			return nil, c, err
		}
	default:
		return nil, c, p.unexpected(t, `"]"`, "array length")
	}
	elem, rest, err := p.typeExpr(next)
	if err != nil {
		return nil, c, err
	}
	typ.Elem = elem
	return typ, rest, nil
}

// ref = ident [ "." ident ] .
func (p *parser) ref(c cursor, expected ...string) (QualIdent, cursor, error) {
	first, c, err := p.name(c, expected...)
	if err != nil {
		return QualIdent{}, c, err
	}
	if dot, _ := c.Peek(); !dot.Is(".") {
		return QualIdent{Name: first.Text}, c, nil
	}
	_, c = c.Next()
	second, c, err := p.name(c, "identifier")
	if err != nil {
		return QualIdent{}, c, err
	}
	return QualIdent{Pkg: first.Text, Name: second.Text}, c, nil
}

// name accepts an identifier that can be used as a Go name.
func (p *parser) name(c cursor, expected ...string) (Token, cursor, error) {
	t, rest := c.Next()
	if t.Kind != TokenIdent {
		return t, c, p.unexpected(t, expected...)
	}
	detail := ""
	switch {
	case token.IsKeyword(t.Text):
		detail = "Go keyword"
	case t.Text == "_":
		detail = "blank identifier"
	}
	if detail != "" {
		return t, c, &GrammarError{File: p.file, Pos: t.Pos, Found: t.Describe(), Expected: expected, Detail: detail}
	}
	return t, rest, nil
}

func (p *parser) expect(c cursor, s string) (cursor, error) {
	t, rest := c.Next()
	if !t.Is(s) {
		return c, p.unexpected(t, strconv.Quote(s))
	}
	return rest, nil
}

func (p *parser) optional(c cursor, s string) cursor {
	if t, rest := c.Next(); t.Is(s) {
		return rest
	}
	return c
}

func (p *parser) unexpected(t Token, expected ...string) error {
	return &GrammarError{File: p.file, Pos: t.Pos, Found: t.Describe(), Expected: expected}
}

func (p *parser) missing(expected ...string) func(cursor) error {
	return func(c cursor) error {
		t, _ := c.Peek()
		return p.unexpected(t, expected...)
	}
}

// grammar turns joiner contract violations into grammar errors at the offending token.
func (p *parser) grammar(err error) error {
	var je *join.Error
	if !errors.As(err, &je) {
		return err
	}
	t := p.toks[len(p.toks)-1]
	if je.Offset < len(p.toks) {
		t = p.toks[je.Offset]
	}
	return &GrammarError{File: p.file, Pos: t.Pos, Found: t.Describe(), Detail: je.Msg}
}

// braced wraps inner in "{" ... "}".
func braced[T any](p *parser, inner step[T]) step[T] {
	return delimited(p, "{", inner, "}")
}

// bracketed wraps inner in "[" ... "]".
func bracketed[T any](p *parser, inner step[T]) step[T] {
	return delimited(p, "[", inner, "]")
}

func delimited[T any](p *parser, open string, inner step[T], closer string) step[T] {
	return func(c cursor) (T, cursor, error) {
		var zero T
		rest, err := p.expect(c, open)
		if err != nil {
			return zero, c, err
		}
		v, rest, err := join.Run(inner, rest)
		if err != nil {
			return zero, c, err
		}
		rest, err = p.expect(rest, closer)
		if err != nil {
			return zero, c, err
		}
		return v, rest, nil
	}
}

func isPunct(s string) func(Token) bool {
	return func(t Token) bool { return t.Kind == TokenPunct && t.Text == s }
}

func isSep(t Token) bool { return t.Kind == TokenPunct && (t.Text == "," || t.Text == ";") }
