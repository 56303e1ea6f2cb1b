package model

import "strings"

// LiteralKind tags the variant held by a Literal
type LiteralKind int

const (
	// LiteralScalar is a string, number or bool literal
	LiteralScalar LiteralKind = iota
	// LiteralEnum is a reference to a constant of a named type
	LiteralEnum
	// LiteralList is a slice or map composite literal
	LiteralList
)

// Literal is a default parameter value rendered back to Go source
type Literal struct {
	Kind LiteralKind

	// Text of a scalar
	Text string

	// Path, Package and Member locate an enum constant
	Path    string
	Package string
	Member  string

	// Type and Elements describe a composite literal
	Type     *TypeExpr
	Elements []Element

	// Zero is the expression a parameter is compared against to decide
	// whether the default applies
	Zero string
}

// Element is one element of a composite literal. Key is set for maps.
type Element struct {
	Key   *Literal
	Value Literal
}

// Scalar returns a scalar literal
func Scalar(text, zero string) Literal {
	return Literal{Kind: LiteralScalar, Text: text, Zero: zero}
}

// Enum returns a reference to a named constant
func Enum(path, pkg, member, zero string) Literal {
	return Literal{Kind: LiteralEnum, Path: path, Package: pkg, Member: member, Zero: zero}
}

// List returns a composite literal of type t
func List(t TypeExpr, elements ...Element) Literal {
	return Literal{Kind: LiteralList, Type: &t, Elements: elements, Zero: "nil"}
}

// Walk calls fn for every type the literal refers to
func (l Literal) Walk(fn func(TypeExpr)) {
	switch l.Kind {
	case LiteralEnum:
		fn(Named(l.Path, l.Package, l.Member))
	case LiteralList:
		l.Type.Walk(fn)
		for _, e := range l.Elements {
			if e.Key != nil {
				e.Key.Walk(fn)
			}
			e.Value.Walk(fn)
		}
	}
}

// Emit renders the literal as Go source
func (l Literal) Emit(q Qualifier) string {
	switch l.Kind {
	case LiteralEnum:
		qual := l.Package
		if q != nil {
			qual = q(l.Path, l.Package)
		}
		if qual == "" {
			return l.Member
		}
		return qual + "." + l.Member
	case LiteralList:
		var b strings.Builder
		b.WriteString(l.Type.Emit(q))
		b.WriteByte('{')
		for i, e := range l.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			if e.Key != nil {
				b.WriteString(e.Key.Emit(q))
				b.WriteString(": ")
			}
			b.WriteString(e.Value.Emit(q))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return l.Text
	}
}
