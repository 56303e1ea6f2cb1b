package model

import "strings"

// TypeRef names a declared type
type TypeRef struct {
	Path    string
	Package string
	Name    string
}

// String returns the fully qualified name path.Name
func (r TypeRef) String() string {
	if r.Path == "" {
		return r.Name
	}
	return r.Path + "." + r.Name
}

// Expr returns the reference as a named type expression
func (r TypeRef) Expr() TypeExpr {
	return Named(r.Path, r.Package, r.Name)
}

// Parameter describes one parameter of a method
type Parameter struct {
	Name string

	// Type is the element type when Variadic is set
	Type TypeExpr

	Variadic bool

	// Default replaces a zero argument before the key is derived
	Default *Literal
}

// MethodSignature describes one method the proxy implements
type MethodSignature struct {
	Name      string
	Receiver  TypeRef
	Params    []Parameter
	Results   []TypeExpr
	Directive Directive
}

// IsVoid reports whether the method returns nothing
func (m MethodSignature) IsVoid() bool {
	return len(m.Results) == 0
}

// ReturnsError reports whether the last result is error
func (m MethodSignature) ReturnsError() bool {
	return len(m.Results) > 0 && m.Results[len(m.Results)-1].IsError()
}

// ValueResults returns the results that are memoized, which excludes a
// trailing error
func (m MethodSignature) ValueResults() []TypeExpr {
	if m.ReturnsError() {
		return m.Results[:len(m.Results)-1]
	}
	return m.Results
}

// IsVariadic reports whether the last parameter is variadic
func (m MethodSignature) IsVariadic() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].Variadic
}

// TakesContext reports whether the first parameter is a context.Context
func (m MethodSignature) TakesContext() bool {
	return len(m.Params) > 0 && m.Params[0].Type.IsContext()
}

// Signature renders the method as it appears in an interface, with fully
// qualified type names
func (m MethodSignature) Signature(q Qualifier) string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteByte(' ')
		}
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString(p.Type.Emit(q))
	}
	b.WriteByte(')')
	b.WriteString(emitResults(m.Results, q))
	return b.String()
}

// ProxyDescriptor holds everything needed to synthesize one proxy
type ProxyDescriptor struct {
	ServiceID string
	Original  TypeRef

	// Interfaces is never empty
	Interfaces []TypeExpr

	Methods []MethodSignature

	// Source is the content of the file declaring Original, when available
	Source []byte
}

// GeneratedArtifact is one file produced by a pass
type GeneratedArtifact struct {
	FileName string
	Source   []byte

	// TypeName is the proxy type, empty for the registration artifact
	TypeName string
}

// Decoration binds a generated proxy to the service it wraps
type Decoration struct {
	ServiceID      string
	CacheServiceID string
	ProxyType      string
	Constructor    string
	InnerType      string
}
