package model

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a TypeExpr
type Kind int

const (
	KindBuiltin Kind = iota
	KindNamed
	KindUnion
	KindIntersection
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindChan
	KindFunc
	KindStruct
	KindInterface
)

// ChanDir is the direction of a channel type
type ChanDir int

const (
	ChanBoth ChanDir = iota
	ChanSend
	ChanRecv
)

// Qualifier returns the identifier a named type from path is referred to by,
// or "" when it needs no qualification
type Qualifier func(path, pkg string) string

// TypeExpr is a type as written in a method signature
type TypeExpr struct {
	Kind Kind

	// Name of a builtin or named type
	Name string

	// Path and Package locate a named type
	Path    string
	Package string

	// Nullable marks a pointer to a named type
	Nullable bool

	// Args are type arguments of an instantiated named type
	Args []TypeExpr

	// Terms are union members or intersection members
	Terms []Term

	// Elem is the element of pointer, slice, array, map and chan types
	Elem *TypeExpr

	// Key is the key of a map type
	Key *TypeExpr

	// Len is the length of an array type
	Len int64

	Dir ChanDir

	// Func holds the signature of a func type
	Func *FuncExpr

	// Fields of a struct type
	Fields []FieldExpr

	// Methods and Embeds of an interface type
	Methods []MethodExpr
	Embeds  []TypeExpr
}

// Term is a member of a union or intersection
type Term struct {
	Tilde bool
	Type  TypeExpr
}

// FuncExpr is a function signature. When Variadic is set the last parameter
// holds the element type.
type FuncExpr struct {
	Params   []TypeExpr
	Results  []TypeExpr
	Variadic bool
}

// FieldExpr is a struct field
type FieldExpr struct {
	Name     string
	Type     TypeExpr
	Embedded bool
	Tag      string
}

// MethodExpr is a method of an interface literal
type MethodExpr struct {
	Name string
	Func FuncExpr
}

// Builtin returns a predeclared type
func Builtin(name string) TypeExpr {
	return TypeExpr{Kind: KindBuiltin, Name: name}
}

// Named returns a declared type
func Named(path, pkg, name string, args ...TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindNamed, Path: path, Package: pkg, Name: name, Args: args}
}

// Nullable returns a pointer to a declared type
func Nullable(path, pkg, name string) TypeExpr {
	t := Named(path, pkg, name)
	t.Nullable = true
	return t
}

// Union returns a type set union
func Union(terms ...Term) TypeExpr {
	return TypeExpr{Kind: KindUnion, Terms: terms}
}

// Intersection returns an interface literal that embeds every member
func Intersection(members ...TypeExpr) TypeExpr {
	terms := make([]Term, len(members))
	for i, m := range members {
		terms[i] = Term{Type: m}
	}
	return TypeExpr{Kind: KindIntersection, Terms: terms}
}

// PointerTo returns *elem
func PointerTo(elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindPointer, Elem: &elem}
}

// SliceOf returns []elem
func SliceOf(elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindSlice, Elem: &elem}
}

// ArrayOf returns [n]elem
func ArrayOf(n int64, elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindArray, Len: n, Elem: &elem}
}

// MapOf returns map[key]elem
func MapOf(key, elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindMap, Key: &key, Elem: &elem}
}

// ChanOf returns a channel type
func ChanOf(dir ChanDir, elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindChan, Dir: dir, Elem: &elem}
}

// FuncOf returns a func type
func FuncOf(f FuncExpr) TypeExpr {
	return TypeExpr{Kind: KindFunc, Func: &f}
}

// IsError reports whether t is the predeclared error type
func (t TypeExpr) IsError() bool {
	return t.Kind == KindBuiltin && t.Name == "error"
}

// IsContext reports whether t is context.Context
func (t TypeExpr) IsContext() bool {
	return t.Kind == KindNamed && !t.Nullable && t.Path == "context" && t.Name == "Context"
}

// Walk calls fn for t and every type nested in it
func (t TypeExpr) Walk(fn func(TypeExpr)) {
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
	for _, term := range t.Terms {
		term.Type.Walk(fn)
	}
	if t.Key != nil {
		t.Key.Walk(fn)
	}
	if t.Elem != nil {
		t.Elem.Walk(fn)
	}
	if t.Func != nil {
		t.Func.walk(fn)
	}
	for _, f := range t.Fields {
		f.Type.Walk(fn)
	}
	for _, m := range t.Methods {
		m.Func.walk(fn)
	}
	for _, e := range t.Embeds {
		e.Walk(fn)
	}
}

func (f FuncExpr) walk(fn func(TypeExpr)) {
	for _, p := range f.Params {
		p.Walk(fn)
	}
	for _, r := range f.Results {
		r.Walk(fn)
	}
}

// Emit renders t as Go source. A nil qualifier qualifies named types by their
// package name.
func (t TypeExpr) Emit(q Qualifier) string {
	var b strings.Builder
	t.emit(&b, q)
	return b.String()
}

// String renders t with package-name qualification
func (t TypeExpr) String() string {
	return t.Emit(nil)
}

func (t TypeExpr) emit(b *strings.Builder, q Qualifier) {
	switch t.Kind {
	case KindBuiltin:
		b.WriteString(t.Name)
	case KindNamed:
		if t.Nullable {
			b.WriteByte('*')
		}
		qual := t.Package
		if q != nil {
			qual = q(t.Path, t.Package)
		}
		if qual != "" {
			b.WriteString(qual)
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.emit(b, q)
			}
			b.WriteByte(']')
		}
	case KindUnion:
		for i, term := range t.Terms {
			if i > 0 {
				b.WriteString(" | ")
			}
			if term.Tilde {
				b.WriteByte('~')
			}
			term.Type.emit(b, q)
		}
	case KindIntersection:
		b.WriteString("interface{ ")
		for i, term := range t.Terms {
			if i > 0 {
				b.WriteString("; ")
			}
			term.Type.emit(b, q)
		}
		b.WriteString(" }")
	case KindPointer:
		b.WriteByte('*')
		t.Elem.emit(b, q)
	case KindSlice:
		b.WriteString("[]")
		t.Elem.emit(b, q)
	case KindArray:
		b.WriteByte('[')
		b.WriteString(strconv.FormatInt(t.Len, 10))
		b.WriteByte(']')
		t.Elem.emit(b, q)
	case KindMap:
		b.WriteString("map[")
		t.Key.emit(b, q)
		b.WriteByte(']')
		t.Elem.emit(b, q)
	case KindChan:
		switch t.Dir {
		case ChanSend:
			b.WriteString("chan<- ")
		case ChanRecv:
			b.WriteString("<-chan ")
		default:
			b.WriteString("chan ")
		}
		// chan (<-chan T) differs from chan<- chan T
		if t.Dir == ChanBoth && t.Elem.Kind == KindChan && t.Elem.Dir == ChanRecv {
			b.WriteByte('(')
			t.Elem.emit(b, q)
			b.WriteByte(')')
		} else {
			t.Elem.emit(b, q)
		}
	case KindFunc:
		b.WriteString("func")
		t.Func.emit(b, q)
	case KindStruct:
		if len(t.Fields) == 0 {
			b.WriteString("struct{}")
			return
		}
		b.WriteString("struct{ ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			if !f.Embedded {
				b.WriteString(f.Name)
				b.WriteByte(' ')
			}
			f.Type.emit(b, q)
			if f.Tag != "" {
				b.WriteByte(' ')
				b.WriteString(strconv.Quote(f.Tag))
			}
		}
		b.WriteString(" }")
	case KindInterface:
		if len(t.Methods) == 0 && len(t.Embeds) == 0 {
			b.WriteString("interface{}")
			return
		}
		b.WriteString("interface{ ")
		n := 0
		for _, e := range t.Embeds {
			if n > 0 {
				b.WriteString("; ")
			}
			e.emit(b, q)
			n++
		}
		for _, m := range t.Methods {
			if n > 0 {
				b.WriteString("; ")
			}
			b.WriteString(m.Name)
			m.Func.emit(b, q)
			n++
		}
		b.WriteString(" }")
	}
}

func (f FuncExpr) emit(b *strings.Builder, q Qualifier) {
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if f.Variadic && i == len(f.Params)-1 {
			b.WriteString("...")
		}
		p.emit(b, q)
	}
	b.WriteByte(')')
	b.WriteString(emitResults(f.Results, q))
}

func emitResults(results []TypeExpr, q Qualifier) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + results[0].Emit(q)
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Emit(q)
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
