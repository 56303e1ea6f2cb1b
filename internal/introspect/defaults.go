package introspect

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"

	"github.com/vnykmshr/memoproxy/internal/directive"
	"github.com/vnykmshr/memoproxy/internal/model"
)

// defaultBuilder rebuilds the literal of a //memoize:default expression in the
// scope of the file that declares it
type defaultBuilder struct {
	fset     *token.FileSet
	pkg      *types.Package
	pos      token.Pos
	src      string
	exprFset *token.FileSet
}

func buildDefault(fset *token.FileSet, pkg *types.Package, d directive.Default, param types.Type) (*model.Literal, error) {
	b := &defaultBuilder{fset: fset, pkg: pkg, pos: d.Pos, src: d.Expr, exprFset: token.NewFileSet()}

	expr, err := parser.ParseExprFrom(b.exprFset, "", d.Expr, 0)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if _, err := zeroOf(param); err != nil {
		return nil, err
	}
	lit, err := b.literal(expr, param)
	if err != nil {
		return nil, err
	}
	return &lit, nil
}

// zeroOf returns the expression a parameter of type t is compared against
func zeroOf(t types.Type) (string, error) {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsString != 0:
			return `""`, nil
		case u.Info()&types.IsBoolean != 0:
			return "false", nil
		case u.Info()&(types.IsInteger|types.IsFloat) != 0:
			return "0", nil
		}
	case *types.Slice, *types.Map, *types.Interface:
		return "nil", nil
	}
	return "", fmt.Errorf("parameters of type %s cannot have defaults", t)
}

func (b *defaultBuilder) text(node ast.Node) string {
	start := b.exprFset.Position(node.Pos()).Offset
	end := b.exprFset.Position(node.End()).Offset
	return b.src[start:end]
}

func (b *defaultBuilder) eval(node ast.Expr) (types.TypeAndValue, error) {
	return types.Eval(b.fset, b.pkg, b.pos, b.text(node))
}

func (b *defaultBuilder) literal(node ast.Expr, want types.Type) (model.Literal, error) {
	if paren, ok := node.(*ast.ParenExpr); ok {
		return b.literal(paren.X, want)
	}
	if cl, ok := node.(*ast.CompositeLit); ok {
		return b.composite(cl, want)
	}

	tv, err := b.eval(node)
	if err != nil {
		return model.Literal{}, fmt.Errorf("evaluate: %w", err)
	}
	if tv.Value == nil {
		return model.Literal{}, errors.New("only constants and slice or map literals are supported")
	}
	if !assignable(tv, want) {
		return model.Literal{}, fmt.Errorf("value of type %s is not assignable to %s", tv.Type, want)
	}

	zero, err := zeroOf(want)
	if err != nil {
		return model.Literal{}, err
	}

	if enum, ok := b.enum(node, tv); ok {
		enum.Zero = zero
		return enum, nil
	}

	text, err := renderConstant(tv.Value, want)
	if err != nil {
		return model.Literal{}, err
	}
	return model.Scalar(text, zero), nil
}

// enum recognizes a reference to an exported constant of a named type
func (b *defaultBuilder) enum(node ast.Expr, tv types.TypeAndValue) (model.Literal, bool) {
	named, ok := types.Unalias(tv.Type).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return model.Literal{}, false
	}

	var path, pkgName, member string
	switch n := node.(type) {
	case *ast.Ident:
		path, pkgName, member = b.pkg.Path(), b.pkg.Name(), n.Name
	case *ast.SelectorExpr:
		x, ok := n.X.(*ast.Ident)
		if !ok {
			return model.Literal{}, false
		}
		imported := b.importedPackage(x.Name)
		if imported == nil {
			return model.Literal{}, false
		}
		path, pkgName, member = imported.Path(), imported.Name(), n.Sel.Name
	default:
		return model.Literal{}, false
	}

	if !token.IsExported(member) {
		return model.Literal{}, false
	}
	return model.Enum(path, pkgName, member, ""), true
}

func (b *defaultBuilder) importedPackage(name string) *types.Package {
	for _, scope := range fileScopes(b.pkg) {
		if !scope.Contains(b.pos) {
			continue
		}
		if pn, ok := scope.Lookup(name).(*types.PkgName); ok {
			return pn.Imported()
		}
	}
	return nil
}

func fileScopes(pkg *types.Package) []*types.Scope {
	scopes := make([]*types.Scope, 0, pkg.Scope().NumChildren())
	for i := 0; i < pkg.Scope().NumChildren(); i++ {
		scopes = append(scopes, pkg.Scope().Child(i))
	}
	return scopes
}

func (b *defaultBuilder) composite(cl *ast.CompositeLit, want types.Type) (model.Literal, error) {
	t := want
	if cl.Type != nil {
		tv, err := types.Eval(b.fset, b.pkg, b.pos, b.text(cl.Type))
		if err != nil {
			return model.Literal{}, fmt.Errorf("evaluate: %w", err)
		}
		if !tv.IsType() {
			return model.Literal{}, fmt.Errorf("%s is not a type", b.text(cl.Type))
		}
		t = tv.Type
	}
	if !types.AssignableTo(t, want) {
		return model.Literal{}, fmt.Errorf("value of type %s is not assignable to %s", t, want)
	}

	te, err := convert(t)
	if err != nil {
		return model.Literal{}, err
	}

	var elements []model.Element
	switch u := t.Underlying().(type) {
	case *types.Slice:
		for _, el := range cl.Elts {
			if _, ok := el.(*ast.KeyValueExpr); ok {
				return model.Literal{}, errors.New("indexed slice literals are not supported")
			}
			v, err := b.literal(el, u.Elem())
			if err != nil {
				return model.Literal{}, err
			}
			elements = append(elements, model.Element{Value: v})
		}
	case *types.Map:
		for _, el := range cl.Elts {
			kv, ok := el.(*ast.KeyValueExpr)
			if !ok {
				return model.Literal{}, errors.New("map literal element without key")
			}
			k, err := b.literal(kv.Key, u.Key())
			if err != nil {
				return model.Literal{}, err
			}
			v, err := b.literal(kv.Value, u.Elem())
			if err != nil {
				return model.Literal{}, err
			}
			elements = append(elements, model.Element{Key: &k, Value: v})
		}
	default:
		return model.Literal{}, fmt.Errorf("composite literals of type %s are not supported", t)
	}

	return model.List(te, elements...), nil
}

// assignable reports whether a constant fits a parameter of type want
func assignable(tv types.TypeAndValue, want types.Type) bool {
	basic, isBasic := tv.Type.(*types.Basic)
	if !isBasic || basic.Info()&types.IsUntyped == 0 {
		return types.AssignableTo(tv.Type, want)
	}

	switch u := want.Underlying().(type) {
	case *types.Interface:
		return u.Empty()
	case *types.Basic:
		switch {
		case u.Info()&types.IsString != 0:
			return tv.Value.Kind() == constant.String
		case u.Info()&types.IsBoolean != 0:
			return tv.Value.Kind() == constant.Bool
		case u.Info()&types.IsInteger != 0:
			v := constant.ToInt(tv.Value)
			return v.Kind() == constant.Int && fitsInteger(v, u)
		case u.Info()&types.IsFloat != 0:
			k := constant.ToFloat(tv.Value).Kind()
			return k == constant.Float || k == constant.Int
		}
	}
	return false
}

// fitsInteger reports whether v is within the range of the integer type t.
// int, uint and uintptr are taken as 64 bits wide.
func fitsInteger(v constant.Value, t *types.Basic) bool {
	var bits uint
	switch t.Kind() {
	case types.Int8, types.Uint8:
		bits = 8
	case types.Int16, types.Uint16:
		bits = 16
	case types.Int32, types.Uint32:
		bits = 32
	default:
		bits = 64
	}

	one := constant.MakeInt64(1)
	lo, hi := constant.MakeInt64(0), constant.BinaryOp(constant.Shift(one, token.SHL, bits), token.SUB, one)
	if t.Info()&types.IsUnsigned == 0 {
		half := constant.Shift(one, token.SHL, bits-1)
		lo, hi = constant.UnaryOp(token.SUB, half, 0), constant.BinaryOp(half, token.SUB, one)
	}
	return constant.Compare(v, token.GEQ, lo) && constant.Compare(v, token.LEQ, hi)
}

func renderConstant(v constant.Value, want types.Type) (string, error) {
	basic, _ := want.Underlying().(*types.Basic)

	switch v.Kind() {
	case constant.String:
		return strconv.Quote(constant.StringVal(v)), nil
	case constant.Bool:
		return strconv.FormatBool(constant.BoolVal(v)), nil
	case constant.Int:
		return v.ExactString(), nil
	case constant.Float:
		if basic != nil && basic.Info()&types.IsInteger != 0 {
			return constant.ToInt(v).ExactString(), nil
		}
		f, _ := constant.Float64Val(v)
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("constants of kind %s are not supported", v.Kind())
}
