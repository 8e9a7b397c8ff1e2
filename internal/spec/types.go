package spec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TypeKind is the shape of a type expression.
type TypeKind int

const (
	TypeNamed TypeKind = iota
	TypePointer
	TypeSlice
	TypeArray
	TypeMap
	TypeChan
	TypeAny         // any / interface{}
	TypeEmptyStruct // struct{}
)

var typeKindNames = [...]string{"named", "pointer", "slice", "array", "map", "chan", "any", "struct"}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

func (k TypeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// TypeExpr is a Go type expression as written in a spec.
type TypeExpr struct {
	Kind TypeKind    `json:"kind"`
	Name QualIdent   `json:"name,omitzero"` // TypeNamed
	Args []*TypeExpr `json:"args,omitempty"` // TypeNamed generic instantiation
	Len  string      `json:"len,omitempty"`  // TypeArray
	Key  *TypeExpr   `json:"key,omitempty"`  // TypeMap
	Elem *TypeExpr   `json:"elem,omitempty"` // pointer, slice, array, map value, chan
}

// Named builds a (possibly qualified) named type.
func Named(pkg, name string, args ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: TypeNamed, Name: QualIdent{Pkg: pkg, Name: name}, Args: args}
}

// String renders the type as Go source.
func (t *TypeExpr) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeExpr) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case TypeNamed:
		sb.WriteString(t.Name.String())
		if len(t.Args) > 0 {
			sb.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.write(sb)
			}
			sb.WriteByte(']')
		}
	case TypePointer:
		sb.WriteByte('*')
		t.Elem.write(sb)
	case TypeSlice:
		sb.WriteString("[]")
		t.Elem.write(sb)
	case TypeArray:
		sb.WriteString("[" + t.Len + "]")
		t.Elem.write(sb)
	case TypeMap:
		sb.WriteString("map[")
		t.Key.write(sb)
		sb.WriteByte(']')
		t.Elem.write(sb)
	case TypeChan:
		sb.WriteString("chan ")
		t.Elem.write(sb)
	case TypeAny:
		sb.WriteString("any")
	case TypeEmptyStruct:
		sb.WriteString("struct{}")
	}
}

// CapabilityKey is the identifier fragment that names the capability methods for t:
// Provide<Key> and ProvideWith<Key>.
//
//	Logger          -> Logger
//	*sql.DB         -> PtrSqlDB
//	[]string        -> SliceString
//	[4]byte         -> Array4Byte
//	map[string]int  -> MapStringInt
//	chan Event      -> ChanEvent
//	Box[Item]       -> BoxOfItem
//	any             -> Any
//
// Distinct types can map to the same key; the compiler rejects such collisions.
func (t *TypeExpr) CapabilityKey() string {
	var sb strings.Builder
	t.writeKey(&sb)
	return sb.String()
}

func (t *TypeExpr) writeKey(sb *strings.Builder) {
	if t == nil {
		return
	}
	switch t.Kind {
	case TypeNamed:
		if t.Name.Pkg != "" {
			sb.WriteString(Export(t.Name.Pkg))
		}
		sb.WriteString(Export(t.Name.Name))
		if len(t.Args) > 0 {
			sb.WriteString("Of")
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString("And")
				}
				a.writeKey(sb)
			}
		}
	case TypePointer:
		sb.WriteString("Ptr")
		t.Elem.writeKey(sb)
	case TypeSlice:
		sb.WriteString("Slice")
		t.Elem.writeKey(sb)
	case TypeArray:
		sb.WriteString("Array" + t.Len)
		t.Elem.writeKey(sb)
	case TypeMap:
		sb.WriteString("Map")
		t.Key.writeKey(sb)
		t.Elem.writeKey(sb)
	case TypeChan:
		sb.WriteString("Chan")
		t.Elem.writeKey(sb)
	case TypeAny:
		sb.WriteString("Any")
	case TypeEmptyStruct:
		sb.WriteString("Struct")
	}
}

// Qualifiers returns every package qualifier used in t, in first-use order.
func (t *TypeExpr) Qualifiers() []string {
	var out []string
	t.walk(func(n *TypeExpr) {
		if n.Kind == TypeNamed && n.Name.Pkg != "" {
			out = append(out, n.Name.Pkg)
		}
	})
	return out
}

func (t *TypeExpr) walk(fn func(*TypeExpr)) {
	if t == nil {
		return
	}
	fn(t)
	for _, a := range t.Args {
		a.walk(fn)
	}
	t.Key.walk(fn)
	t.Elem.walk(fn)
}

// Export upper-cases the first rune of an identifier.
func Export(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IsExported reports whether s starts with an upper-case letter.
func IsExported(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
