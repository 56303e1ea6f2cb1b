package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byAlias(path, pkg string) string {
	if path == "example.com/calc" {
		return ""
	}
	return "x" + pkg
}

func TestTypeExprEmit(t *testing.T) {
	user := Named("example.com/users", "users", "User")
	local := Named("example.com/calc", "calc", "Mode")

	cases := []struct {
		name string
		expr TypeExpr
		want string
	}{
		{"builtin", Builtin("int"), "int"},
		{"named", user, "xusers.User"},
		{"local named", local, "Mode"},
		{"nullable", Nullable("example.com/users", "users", "User"), "*xusers.User"},
		{"generic", Named("example.com/users", "users", "Page", user, Builtin("int")), "xusers.Page[xusers.User, int]"},
		{"pointer", PointerTo(Builtin("string")), "*string"},
		{"slice", SliceOf(user), "[]xusers.User"},
		{"array", ArrayOf(4, Builtin("byte")), "[4]byte"},
		{"map", MapOf(Builtin("string"), SliceOf(Builtin("int"))), "map[string][]int"},
		{"send chan", ChanOf(ChanSend, Builtin("int")), "chan<- int"},
		{"recv chan", ChanOf(ChanRecv, Builtin("int")), "<-chan int"},
		{"chan of recv chan", ChanOf(ChanBoth, ChanOf(ChanRecv, Builtin("int"))), "chan (<-chan int)"},
		{"func", FuncOf(FuncExpr{
			Params:   []TypeExpr{Builtin("string"), Builtin("int")},
			Results:  []TypeExpr{Builtin("bool"), Builtin("error")},
			Variadic: true,
		}), "func(string, ...int) (bool, error)"},
		{"union", Union(Term{Tilde: true, Type: Builtin("int")}, Term{Type: Builtin("string")}), "~int | string"},
		{"intersection", Intersection(Named("io", "io", "Reader"), Named("io", "io", "Closer")), "interface{ xio.Reader; xio.Closer }"},
		{"empty struct", TypeExpr{Kind: KindStruct}, "struct{}"},
		{"struct", TypeExpr{Kind: KindStruct, Fields: []FieldExpr{
			{Name: "A", Type: Builtin("int"), Tag: `json:"a"`},
			{Type: local, Embedded: true},
		}}, "struct{ A int \"json:\\\"a\\\"\"; Mode }"},
		{"empty interface", TypeExpr{Kind: KindInterface}, "interface{}"},
		{"interface", TypeExpr{Kind: KindInterface, Methods: []MethodExpr{
			{Name: "Len", Func: FuncExpr{Results: []TypeExpr{Builtin("int")}}},
		}}, "interface{ Len() int }"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.expr.Emit(byAlias))
		})
	}
}

func TestTypeExprStringUsesPackageName(t *testing.T) {
	assert.Equal(t, "users.User", Named("example.com/users", "users", "User").String())
}

func TestTypeExprWalk(t *testing.T) {
	expr := MapOf(Builtin("string"), SliceOf(Nullable("example.com/users", "users", "User")))

	var paths []string
	expr.Walk(func(te TypeExpr) {
		if te.Kind == KindNamed {
			paths = append(paths, te.Path)
		}
	})

	assert.Equal(t, []string{"example.com/users"}, paths)
}

func TestLiteralEmit(t *testing.T) {
	enum := Enum("example.com/users", "users", "RoleAdmin", `""`)
	assert.Equal(t, "xusers.RoleAdmin", enum.Emit(byAlias))

	str := Scalar(`"a"`, `""`)
	list := List(SliceOf(Builtin("string")), Element{Value: str}, Element{Value: Scalar(`"b"`, `""`)})
	assert.Equal(t, `[]string{"a", "b"}`, list.Emit(nil))
	assert.Equal(t, "nil", list.Zero)

	key := Scalar("1", "0")
	m := List(MapOf(Builtin("int"), Builtin("string")), Element{Key: &key, Value: str})
	assert.Equal(t, `map[int]string{1: "a"}`, m.Emit(nil))
}

func TestMethodSignature(t *testing.T) {
	ctx := Named("context", "context", "Context")
	m := MethodSignature{
		Name: "Sum",
		Params: []Parameter{
			{Name: "ctx", Type: ctx},
			{Name: "values", Type: Builtin("int"), Variadic: true},
		},
		Results: []TypeExpr{Builtin("int"), Builtin("string"), Builtin("error")},
	}

	assert.True(t, m.TakesContext())
	assert.True(t, m.IsVariadic())
	assert.True(t, m.ReturnsError())
	assert.False(t, m.IsVoid())
	require.Len(t, m.ValueResults(), 2)
	assert.Equal(t, "Sum(ctx context.Context, values ...int) (int, string, error)", m.Signature(nil))

	void := MethodSignature{Name: "Reset"}
	assert.True(t, void.IsVoid())
	assert.False(t, void.ReturnsError())
	assert.Equal(t, "Reset()", void.Signature(nil))
}

func TestDirectiveTTL(t *testing.T) {
	d := Directive{Enabled: true, Seconds: 30, Origin: OriginMethod}
	assert.Equal(t, "30s", d.TTL().String())
	assert.Equal(t, "method", d.Origin.String())
}

func TestTypeRef(t *testing.T) {
	ref := TypeRef{Path: "example.com/calc", Package: "calc", Name: "Calculator"}
	assert.Equal(t, "example.com/calc.Calculator", ref.String())
	assert.Equal(t, "Calculator", ref.Expr().Emit(byAlias))
}
