package synth

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/memoproxy/internal/model"
)

const calcPath = "example.com/calc"

func memo(seconds int) model.Directive {
	return model.Directive{Enabled: true, Seconds: seconds, Origin: model.OriginMethod}
}

func intT() model.TypeExpr { return model.Builtin("int") }

func calcDescriptor() model.ProxyDescriptor {
	recv := model.TypeRef{Path: calcPath, Package: "calc", Name: "Calc"}
	ctx := model.Named("context", "context", "Context")
	errT := model.Builtin("error")
	mode := model.Named(calcPath, "calc", "Mode")
	enum := model.Enum(calcPath, "calc", "ModeFast", "0")

	return model.ProxyDescriptor{
		ServiceID:  "calc",
		Original:   recv,
		Interfaces: []model.TypeExpr{model.Named(calcPath, "calc", "Calculator")},
		Source:     []byte("package calc\n"),
		Methods: []model.MethodSignature{
			{Name: "Add", Receiver: recv, Directive: memo(5),
				Params:  []model.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}},
				Results: []model.TypeExpr{intT()}},
			{Name: "DivMod", Receiver: recv, Directive: memo(60),
				Params:  []model.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}},
				Results: []model.TypeExpr{intT(), intT(), errT}},
			{Name: "Divide", Receiver: recv, Directive: memo(60),
				Params:  []model.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}},
				Results: []model.TypeExpr{intT(), errT}},
			{Name: "Fetch", Receiver: recv, Directive: memo(30),
				Params:  []model.Parameter{{Name: "ctx", Type: ctx}, {Name: "id", Type: model.Builtin("string")}},
				Results: []model.TypeExpr{model.SliceOf(model.Builtin("byte")), errT}},
			{Name: "Flush", Receiver: recv, Directive: memo(10),
				Results: []model.TypeExpr{errT}},
			{Name: "Now", Receiver: recv,
				Results: []model.TypeExpr{model.Builtin("int64")}},
			{Name: "Reset", Receiver: recv, Directive: memo(10)},
			{Name: "Round", Receiver: recv, Directive: memo(10),
				Params: []model.Parameter{
					{Name: "x", Type: model.Builtin("float64")},
					{Name: "mode", Type: mode, Default: &enum},
				},
				Results: []model.TypeExpr{model.Builtin("float64")}},
			{Name: "Sum", Receiver: recv, Directive: memo(5),
				Params:  []model.Parameter{{Name: "values", Type: intT(), Variadic: true}},
				Results: []model.TypeExpr{intT()}},
			{Name: "Touch", Receiver: recv,
				Params: []model.Parameter{{Name: "id", Type: model.Builtin("string")}}},
		},
	}
}

func generate(t *testing.T, desc model.ProxyDescriptor) (model.GeneratedArtifact, string) {
	t.Helper()
	art, err := New(Config{Package: "memoized"}).Proxy(desc)
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), art.FileName, art.Source, parser.AllErrors)
	require.NoError(t, err, string(art.Source))
	return art, string(art.Source)
}

func TestProxyStructure(t *testing.T) {
	art, src := generate(t, calcDescriptor())

	assert.Regexp(t, regexp.MustCompile(`^CalcProxy[0-9a-f]{16}$`), art.TypeName)
	assert.Equal(t, FileName(art.TypeName), art.FileName)
	assert.True(t, strings.HasPrefix(src, "// Code generated by memoproxy. DO NOT EDIT.\n\npackage memoized\n"))

	for _, want := range []string{
		`calc "example.com/calc"`,
		`context "context"`,
		`memoize "github.com/vnykmshr/memoproxy/pkg/memoize"`,
		`time "time"`,
		"_ calc.Calculator = (*" + art.TypeName + ")(nil)",
		"type " + art.TypeName + "Inner interface {",
		"\tinner " + art.TypeName + "Inner\n",
		"func New" + art.TypeName + "(inner " + art.TypeName + "Inner, pool memoize.Pool) *" + art.TypeName + " {",
		"type " + art.TypeName + "DivModResult struct {",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, art.TypeName+"DivideResult", "single value results need no tuple")
}

func TestProxyMemoizedBody(t *testing.T) {
	art, src := generate(t, calcDescriptor())

	add := `func (proxy *` + art.TypeName + `) Add(a int, b int) int {
	memoCtx := context.Background()
	memoKey := memoize.NewKey("calc", "Add")
	memoKey.Add(a)
	memoKey.Add(b)
	memoItem := proxy.pool.GetItem(memoCtx, memoKey.String())
	if memoItem.IsHit() {
		if memoCached, memoOK := memoize.Value[int](memoItem); memoOK {
			return memoCached
		}
	}
	memoResult := proxy.inner.Add(a, b)
	memoItem.Set(memoResult)
	memoItem.ExpiresAfter(5 * time.Second)
	proxy.pool.Save(memoCtx, memoItem)
	return memoResult
}`
	assert.Contains(t, src, add)
}

func TestProxyErrorResults(t *testing.T) {
	art, src := generate(t, calcDescriptor())

	assert.Contains(t, src, `	memoResult, memoErr := proxy.inner.Divide(a, b)
	if memoErr != nil {
		return memoResult, memoErr
	}
	memoItem.Set(memoResult)
	memoItem.ExpiresAfter(60 * time.Second)
	proxy.pool.Save(memoCtx, memoItem)
	return memoResult, nil`)

	assert.Contains(t, src, `		if memoCached, memoOK := memoize.Value[`+art.TypeName+`DivModResult](memoItem); memoOK {
			return memoCached.R0, memoCached.R1, nil
		}`)
	assert.Contains(t, src, `	memoR0, memoR1, memoErr := proxy.inner.DivMod(a, b)
	if memoErr != nil {
		return memoR0, memoR1, memoErr
	}
	memoItem.Set(`+art.TypeName+`DivModResult{R0: memoR0, R1: memoR1})`)

	assert.Contains(t, src, `	if memoItem.IsHit() {
		return nil
	}
	memoErr := proxy.inner.Flush()
	if memoErr != nil {
		return memoErr
	}
	memoItem.ExpiresAfter(10 * time.Second)
	proxy.pool.Save(memoCtx, memoItem)
	return nil`)
}

func TestProxyContextAndVariadic(t *testing.T) {
	_, src := generate(t, calcDescriptor())

	assert.Contains(t, src, `	memoCtx := ctx
	memoKey := memoize.NewKey("calc", "Fetch")
	memoKey.Add(id)
	memoItem`)

	assert.Contains(t, src, `	for _, memoArg := range values {
		memoKey.Add(memoArg)
	}`)
	assert.Contains(t, src, "proxy.inner.Sum(values...)")
}

func TestProxyVoidAndForwarding(t *testing.T) {
	_, src := generate(t, calcDescriptor())

	assert.Contains(t, src, `	if memoItem.IsHit() {
		return
	}
	proxy.inner.Reset()
	memoItem.ExpiresAfter(10 * time.Second)
	proxy.pool.Save(memoCtx, memoItem)
}`)

	assert.Contains(t, src, `) Now() int64 {
	return proxy.inner.Now()
}`)
	assert.Contains(t, src, `) Touch(id string) {
	proxy.inner.Touch(id)
}`)
}

func TestProxyDefaults(t *testing.T) {
	_, src := generate(t, calcDescriptor())

	assert.Contains(t, src, `) Round(x float64, mode calc.Mode) float64 {
	if mode == 0 {
		mode = calc.ModeFast
	}
	memoCtx := context.Background()`)
}

func TestProxyRenamesCollidingParams(t *testing.T) {
	recv := model.TypeRef{Path: calcPath, Package: "calc", Name: "Calc"}
	desc := model.ProxyDescriptor{
		ServiceID:  "calc",
		Original:   recv,
		Interfaces: []model.TypeExpr{model.Named(calcPath, "calc", "Calculator")},
		Methods: []model.MethodSignature{{
			Name: "Mix", Receiver: recv, Directive: memo(5),
			Params: []model.Parameter{
				{Name: "memoKey", Type: intT()},
				{Name: "time", Type: intT()},
				{Name: "proxy", Type: intT()},
				{Name: "_", Type: intT()},
				{Name: "", Type: intT()},
				{Name: "calc", Type: model.Named(calcPath, "calc", "Mode")},
				{Name: "memoR0", Type: intT()},
				{Name: "len", Type: intT()},
			},
			Results: []model.TypeExpr{intT()},
		}},
	}

	_, src := generate(t, desc)
	assert.Contains(t, src, "Mix(memoKey1 int, time1 int, proxy1 int, arg3 int, arg4 int, calc1 calc.Mode, arg6 int, len1 int) int {")
	assert.Contains(t, src, "proxy.inner.Mix(memoKey1, time1, proxy1, arg3, arg4, calc1, arg6, len1)")
}

func TestProxyRenamesResultLikeParams(t *testing.T) {
	recv := model.TypeRef{Path: calcPath, Package: "calc", Name: "Calc"}
	desc := model.ProxyDescriptor{
		ServiceID:  "calc",
		Original:   recv,
		Interfaces: []model.TypeExpr{model.Named(calcPath, "calc", "Calculator")},
		Methods: []model.MethodSignature{{
			Name: "Pick", Receiver: recv, Directive: memo(5),
			Params: []model.Parameter{
				{Name: "memoR0", Type: intT()},
				{Name: "memoR", Type: intT()},
				{Name: "arg0", Type: intT()},
			},
			Results: []model.TypeExpr{intT(), intT()},
		}},
	}

	type rendered struct {
		art model.GeneratedArtifact
		err error
	}
	done := make(chan rendered, 1)
	go func() {
		art, err := New(Config{Package: "memoized"}).Proxy(desc)
		done <- rendered{art, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		src := string(r.art.Source)
		assert.Contains(t, src, "Pick(arg01 int, memoR int, arg0 int) (int, int) {")
		assert.Contains(t, src, "memoR0, memoR1 := proxy.inner.Pick(arg01, memoR, arg0)")
	case <-time.After(5 * time.Second):
		t.Fatal("renaming a memoR parameter did not terminate")
	}
}

func TestProxyImportAliasCollision(t *testing.T) {
	recv := model.TypeRef{Path: calcPath, Package: "calc", Name: "Calc"}
	desc := model.ProxyDescriptor{
		ServiceID:  "calc",
		Original:   recv,
		Interfaces: []model.TypeExpr{model.Named(calcPath, "calc", "Calculator")},
		Methods: []model.MethodSignature{{
			Name: "At", Receiver: recv,
			Params: []model.Parameter{
				{Name: "a", Type: model.Named("example.com/time", "time", "Zone")},
				{Name: "b", Type: model.Named("example.com/other/calc", "calc", "Mode")},
			},
		}},
	}

	_, src := generate(t, desc)
	assert.Contains(t, src, `time2 "example.com/time"`)
	assert.Contains(t, src, `calc2 "example.com/other/calc"`)
	assert.Contains(t, src, "At(a time2.Zone, b calc2.Mode)")
	assert.NotContains(t, src, `time "time"`, "unused imports are omitted")
	assert.NotContains(t, src, `context "context"`)
}

func TestProxyRequiresInterfaces(t *testing.T) {
	desc := calcDescriptor()
	desc.Interfaces = nil

	_, err := New(Config{}).Proxy(desc)
	assert.ErrorIs(t, err, ErrNoInterfaces)
}

func TestProxyNameDeterministic(t *testing.T) {
	desc := calcDescriptor()
	assert.Equal(t, ProxyName(desc), ProxyName(desc))

	other := calcDescriptor()
	other.ServiceID = "calc.v2"
	assert.NotEqual(t, ProxyName(desc), ProxyName(other), "service id is part of the name")

	changed := calcDescriptor()
	changed.Source = []byte("package calc\n\n// changed\n")
	assert.NotEqual(t, ProxyName(desc), ProxyName(changed), "source content is part of the name")

	noSource := calcDescriptor()
	noSource.Source = nil
	assert.Equal(t, ProxyName(noSource), ProxyName(noSource), "fallback is deterministic")
	assert.NotEqual(t, ProxyName(desc), ProxyName(noSource))

	fewer := calcDescriptor()
	fewer.Source = nil
	fewer.Methods = fewer.Methods[:3]
	assert.NotEqual(t, ProxyName(noSource), ProxyName(fewer), "fallback follows the method table")

	lower := calcDescriptor()
	lower.Original.Name = "calc"
	assert.True(t, strings.HasPrefix(ProxyName(lower), "CalcProxy"))
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"CalcProxy0123456789abcdef": "calc_proxy0123456789abcdef_memo.go",
		"HTTPClientProxyab":         "http_client_proxyab_memo.go",
		"UserV2Proxy00":             "user_v2_proxy00_memo.go",
	}
	for in, want := range cases {
		assert.Equal(t, want, FileName(in), in)
	}
}

func TestRegistration(t *testing.T) {
	s := New(Config{Package: "memoized"})
	desc := calcDescriptor()
	art, err := s.Proxy(desc)
	require.NoError(t, err)

	reg, err := s.Registration([]model.Decoration{DecorationFor(desc, art, "cache.pool")})
	require.NoError(t, err)
	assert.Equal(t, RegistrationFile, reg.FileName)
	assert.Empty(t, reg.TypeName)

	src := string(reg.Source)
	assert.Contains(t, src, "func Register(c *memoize.Container) error {")
	assert.Contains(t, src, `if err := memoize.DecorateWith(c, "calc", "cache.pool", func(inner `+art.TypeName+`Inner, pool memoize.Pool) any {
		return New`+art.TypeName+`(inner, pool)
	}); err != nil {
		return err
	}`)
	assert.True(t, strings.HasSuffix(src, "\treturn nil\n}\n"))

	empty, err := s.Registration(nil)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), RegistrationFile, empty.Source, 0)
	require.NoError(t, err)
}
