package spec

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TokenKind classifies a lexical fragment.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenInt
	TokenString
	TokenPunct
)

// Token is one lexical fragment of a spec file.
type Token struct {
	Kind TokenKind
	Text string // identifier, digits, punctuation, or the unquoted string value
	Pos  Pos

	// Adjacent is true when no whitespace or comment separates this token from the
	// previous one. It tells `Box[Item]` (type arguments) from `Box [NewBox]` (strategy).
	Adjacent bool
}

// Is reports whether t is the punctuation or identifier text s.
func (t Token) Is(s string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenIdent) && t.Text == s
}

// Describe renders the token for diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return "identifier " + strconv.Quote(t.Text)
	case TokenInt:
		return "number " + t.Text
	case TokenString:
		return "string " + strconv.Quote(t.Text)
	default:
		return strconv.Quote(t.Text)
	}
}

type lexer struct {
	file     string
	src      string
	off      int
	line     int
	col      int
	adjacent bool
	toks     []Token
}

// Tokenize splits spec source into tokens. The source is normalised to NFC first so
// that visually identical identifiers compare equal. The result always ends with a
// TokenEOF token.
func Tokenize(file string, src []byte) ([]Token, error) {
	lx := &lexer{file: file, src: norm.NFC.String(string(src)), line: 1, col: 1}
	for {
		if err := lx.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if lx.off >= len(lx.src) {
			lx.emit(TokenEOF, "", lx.pos())
			return lx.toks, nil
		}
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
}

func (lx *lexer) pos() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) peek() (rune, int) {
	if lx.off >= len(lx.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(lx.src[lx.off:])
}

func (lx *lexer) advance() rune {
	r, size := lx.peek()
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) emit(kind TokenKind, text string, at Pos) {
	lx.toks = append(lx.toks, Token{Kind: kind, Text: text, Pos: at, Adjacent: lx.adjacent})
	lx.adjacent = true
}

func (lx *lexer) skipSpaceAndComments() error {
	for lx.off < len(lx.src) {
		r, _ := lx.peek()
		switch {
		case unicode.IsSpace(r):
			lx.advance()
			lx.adjacent = false
		case r == '/' && lx.hasPrefix("//"):
			for lx.off < len(lx.src) {
				if r, _ := lx.peek(); r == '\n' {
					break
				}
				lx.advance()
			}
			lx.adjacent = false
		case r == '/' && lx.hasPrefix("/*"):
			start := lx.pos()
			lx.advance()
			lx.advance()
			for lx.off < len(lx.src) && !lx.hasPrefix("*/") {
				lx.advance()
			}
			if lx.off >= len(lx.src) {
				return &GrammarError{File: lx.file, Pos: start, Found: "unterminated comment", Expected: []string{"*/"}}
			}
			lx.advance()
			lx.advance()
			lx.adjacent = false
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) hasPrefix(s string) bool {
	return len(lx.src)-lx.off >= len(s) && lx.src[lx.off:lx.off+len(s)] == s
}

func (lx *lexer) next() error {
	start := lx.pos()
	r, _ := lx.peek()

	switch {
	case r == '_' || unicode.IsLetter(r):
		begin := lx.off
		for lx.off < len(lx.src) {
			r, _ := lx.peek()
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			lx.advance()
		}
		lx.emit(TokenIdent, lx.src[begin:lx.off], start)
		return nil

	case r >= '0' && r <= '9':
		begin := lx.off
		for lx.off < len(lx.src) {
			r, _ := lx.peek()
			if r < '0' || r > '9' {
				break
			}
			lx.advance()
		}
		lx.emit(TokenInt, lx.src[begin:lx.off], start)
		return nil

	case r == '"' || r == '`':
		return lx.lexString(r, start)

	case r == '-' && lx.hasPrefix("->"):
		lx.advance()
		lx.advance()
		lx.emit(TokenPunct, "->", start)
		return nil
	}

	switch r {
	case '{', '}', '(', ')', '[', ']', '<', '>', ':', ';', ',', '+', '*', '.', '&':
		lx.advance()
		lx.emit(TokenPunct, string(r), start)
		return nil
	}

	return &GrammarError{
		File:   lx.file,
		Pos:    start,
		Found:  "character " + strconv.QuoteRune(r),
		Detail: "not part of the spec language",
	}
}

func (lx *lexer) lexString(quote rune, start Pos) error {
	begin := lx.off
	lx.advance()
	for {
		if lx.off >= len(lx.src) {
			return &GrammarError{File: lx.file, Pos: start, Found: "unterminated string", Expected: []string{string(quote)}}
		}
		r := lx.advance()
		if r == '\n' && quote == '"' {
			return &GrammarError{File: lx.file, Pos: start, Found: "newline in string", Expected: []string{`"`}}
		}
		if r == '\\' && quote == '"' {
			if lx.off < len(lx.src) {
				lx.advance()
			}
			continue
		}
		if r == quote {
			break
		}
	}
	raw := lx.src[begin:lx.off]
	val, err := strconv.Unquote(raw)
	if err != nil {
		return &GrammarError{File: lx.file, Pos: start, Found: "string " + raw, Detail: err.Error()}
	}
	lx.emit(TokenString, val, start)
	return nil
}
