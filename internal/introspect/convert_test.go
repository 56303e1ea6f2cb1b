package introspect

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedType(path, name string, underlying types.Type) *types.Named {
	pkg := types.NewPackage(path, lastSegment(path))
	obj := types.NewTypeName(token.NoPos, pkg, name, nil)
	return types.NewNamed(obj, underlying, nil)
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func TestConvert(t *testing.T) {
	user := namedType("example.com/users", "User", types.NewStruct(nil, nil))
	errType := types.Universe.Lookup("error").Type()

	cases := []struct {
		name string
		typ  types.Type
		want string
	}{
		{"basic", types.Typ[types.Int], "int"},
		{"byte", types.Universe.Lookup("byte").Type(), "byte"},
		{"error", errType, "error"},
		{"named", user, "users.User"},
		{"nullable", types.NewPointer(user), "*users.User"},
		{"pointer to basic", types.NewPointer(types.Typ[types.String]), "*string"},
		{"slice", types.NewSlice(user), "[]users.User"},
		{"array", types.NewArray(types.Typ[types.Uint8], 16), "[16]uint8"},
		{"map", types.NewMap(types.Typ[types.String], types.NewSlice(types.Typ[types.Int])), "map[string][]int"},
		{"recv chan", types.NewChan(types.RecvOnly, types.Typ[types.Int]), "<-chan int"},
		{"func", types.NewSignatureType(nil, nil, nil,
			types.NewTuple(
				types.NewVar(token.NoPos, nil, "s", types.Typ[types.String]),
				types.NewVar(token.NoPos, nil, "n", types.NewSlice(types.Typ[types.Int])),
			),
			types.NewTuple(types.NewVar(token.NoPos, nil, "", errType)),
			true), "func(string, ...int) error"},
		{"empty interface", types.NewInterfaceType(nil, nil), "interface{}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := convert(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestConvertIntersection(t *testing.T) {
	reader := namedType("io", "Reader", types.NewInterfaceType(nil, nil).Complete())
	closer := namedType("io", "Closer", types.NewInterfaceType(nil, nil).Complete())
	iface := types.NewInterfaceType(nil, []types.Type{reader, closer}).Complete()

	got, err := convert(iface)
	require.NoError(t, err)
	assert.Equal(t, "interface{ io.Reader; io.Closer }", got.String())
}

func TestConvertUnknown(t *testing.T) {
	hidden := namedType("example.com/calc", "point", types.NewStruct(nil, nil))
	tparam := types.NewTypeParam(types.NewTypeName(token.NoPos, nil, "T", nil), types.NewInterfaceType(nil, nil))
	private := types.NewStruct([]*types.Var{
		types.NewField(token.NoPos, types.NewPackage("example.com/calc", "calc"), "n", types.Typ[types.Int], false),
	}, nil)

	for name, typ := range map[string]types.Type{
		"unexported named": hidden,
		"type parameter":   tparam,
		"unsafe pointer":   types.Typ[types.UnsafePointer],
		"invalid":          types.Typ[types.Invalid],
		"untyped":          types.Typ[types.UntypedInt],
		"tuple":            types.NewTuple(types.NewVar(token.NoPos, nil, "x", types.Typ[types.Int])),
		"unexported field": private,
		"slice of hidden":  types.NewSlice(hidden),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := convert(typ)
			require.Error(t, err)
		})
	}
}
