package introspect

import (
	"context"
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/vnykmshr/memoproxy/internal/directive"
	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// Target is a resolved service type
type Target struct {
	Ref   model.TypeRef
	Named *types.Named
	Pkg   *packages.Package

	// Source is the content of the declaring file, nil if unreadable
	Source []byte
}

// Introspector turns service types into proxy descriptions
type Introspector struct {
	loader            *Loader
	interfacePackages []string
	logger            memoize.Logger
}

// New creates an introspector over loader. interfacePackages are searched for
// implemented interfaces in addition to the type's own package.
func New(loader *Loader, interfacePackages []string, logger memoize.Logger) *Introspector {
	if logger == nil {
		logger = memoize.NewNoOpLogger()
	}
	return &Introspector{loader: loader, interfacePackages: interfacePackages, logger: logger}
}

// SplitQualified splits "path.Name" at the last dot
func SplitQualified(qualified string) (path, name string, err error) {
	i := strings.LastIndex(qualified, ".")
	if i <= 0 || i == len(qualified)-1 || strings.HasSuffix(qualified[:i], "/") {
		return "", "", fmt.Errorf("invalid type name %q: expected import/path.Name", qualified)
	}
	return qualified[:i], qualified[i+1:], nil
}

// Resolve finds the named type path.Name. A type that does not exist yields
// ErrTypeNotFound.
func (in *Introspector) Resolve(ctx context.Context, qualified string) (*Target, error) {
	path, name, err := SplitQualified(qualified)
	if err != nil {
		return nil, err
	}

	pkg, err := in.loader.Package(ctx, path)
	if err != nil {
		return nil, err
	}
	if pkg.Name == "main" {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "types in package main cannot be imported"}
	}

	obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", qualified, ErrTypeNotFound)
	}
	if obj.IsAlias() {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "type is an alias"}
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "not a named type"}
	}
	if named.TypeParams().Len() > 0 {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "type is generic"}
	}
	if types.IsInterface(named) {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "type is an interface"}
	}

	target := &Target{
		Ref:   model.TypeRef{Path: path, Package: pkg.Name, Name: name},
		Named: named,
		Pkg:   pkg,
	}

	file := in.loader.Fset().Position(obj.Pos()).Filename
	if src, err := os.ReadFile(file); err == nil {
		target.Source = src
	} else {
		in.logger.Debug("declaring file unreadable", memoize.F("type", qualified), memoize.F("error", err))
	}

	return target, nil
}

// Interfaces returns the interfaces the proxy implements, sorted by qualified
// name. An explicit list is checked; otherwise interfaces are discovered in
// the type's package and the configured interface packages.
func (in *Introspector) Interfaces(ctx context.Context, target *Target, explicit []string) ([]model.TypeExpr, error) {
	ptr := types.NewPointer(target.Named)
	var found []*types.TypeName

	if len(explicit) > 0 {
		for _, qualified := range explicit {
			obj, err := in.lookupInterface(ctx, target, qualified)
			if err != nil {
				return nil, err
			}
			iface := obj.Type().Underlying().(*types.Interface)
			if !types.Implements(ptr, iface) {
				missing, _ := types.MissingMethod(ptr, iface, true)
				e := &InterfaceNotImplementedError{Type: target.Ref.String(), Interface: qualified}
				if missing != nil {
					e.Missing = missing.Name()
				}
				return nil, e
			}
			found = append(found, obj)
		}
	} else {
		scopes := []*types.Package{target.Pkg.Types}
		for _, p := range in.interfacePackages {
			if p == target.Ref.Path {
				continue
			}
			ip, err := in.loader.Package(ctx, p)
			if err != nil {
				return nil, err
			}
			if !in.loader.sameBatch(p, target.Ref.Path) {
				in.logger.Warn("interface package loaded separately from service, skipping",
					memoize.F("package", p), memoize.F("type", target.Ref.String()))
				continue
			}
			scopes = append(scopes, ip.Types)
		}

		for _, pkg := range scopes {
			for _, name := range pkg.Scope().Names() {
				obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
				if !ok || !proxiableInterface(obj) {
					continue
				}
				if types.Implements(ptr, obj.Type().Underlying().(*types.Interface)) {
					found = append(found, obj)
				}
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return qualifiedName(found[i]) < qualifiedName(found[j])
	})

	out := make([]model.TypeExpr, 0, len(found))
	seen := map[string]bool{}
	for _, obj := range found {
		q := qualifiedName(obj)
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, model.Named(obj.Pkg().Path(), obj.Pkg().Name(), obj.Name()))
	}
	return out, nil
}

func (in *Introspector) lookupInterface(ctx context.Context, target *Target, qualified string) (*types.TypeName, error) {
	path, name, err := SplitQualified(qualified)
	if err != nil {
		return nil, err
	}

	pkg := findImported(target.Pkg.Types, path, map[string]bool{})
	if pkg == nil {
		loaded, err := in.loader.Package(ctx, path)
		if err != nil {
			return nil, err
		}
		if !in.loader.sameBatch(path, target.Ref.Path) {
			return nil, &UnsupportedTargetError{
				Type:   qualified,
				Reason: "interface package must be loaded with " + target.Ref.Path,
			}
		}
		pkg = loaded.Types
	}

	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("interface %s: %w", qualified, ErrTypeNotFound)
	}
	if !types.IsInterface(obj.Type()) {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "not an interface"}
	}
	if !proxiableInterface(obj) {
		return nil, &UnsupportedTargetError{Type: qualified, Reason: "interface must be exported, non-generic and have only exported methods"}
	}
	return obj, nil
}

// proxiableInterface reports whether obj is an exported, non-generic,
// non-empty interface with only exported methods
func proxiableInterface(obj *types.TypeName) bool {
	if !obj.Exported() || obj.IsAlias() {
		return false
	}
	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return false
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok || !iface.IsMethodSet() || iface.NumMethods() == 0 {
		return false
	}
	for i := 0; i < iface.NumMethods(); i++ {
		if !iface.Method(i).Exported() {
			return false
		}
	}
	return true
}

func findImported(pkg *types.Package, path string, seen map[string]bool) *types.Package {
	if pkg.Path() == path {
		return pkg
	}
	if seen[pkg.Path()] {
		return nil
	}
	seen[pkg.Path()] = true
	for _, imp := range pkg.Imports() {
		if found := findImported(imp, path, seen); found != nil {
			return found
		}
	}
	return nil
}

func qualifiedName(obj *types.TypeName) string {
	return obj.Pkg().Path() + "." + obj.Name()
}

// DeclaringPackages returns the import paths of the packages declaring the
// exported methods of *T, sorted
func (in *Introspector) DeclaringPackages(target *Target) []string {
	seen := map[string]bool{target.Ref.Path: true}
	mset := types.NewMethodSet(types.NewPointer(target.Named))
	for i := 0; i < mset.Len(); i++ {
		fn := mset.At(i).Obj().(*types.Func)
		if fn.Exported() && fn.Pkg() != nil {
			seen[fn.Pkg().Path()] = true
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Methods returns every exported method of *T sorted by name. Defaults are
// rebuilt from the directives in table; directives themselves are left to the
// caller.
func (in *Introspector) Methods(ctx context.Context, target *Target, table *directive.Table) ([]model.MethodSignature, error) {
	mset := types.NewMethodSet(types.NewPointer(target.Named))
	var out []model.MethodSignature

	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn := sel.Obj().(*types.Func)
		if !fn.Exported() {
			continue
		}
		sig := sel.Type().(*types.Signature)
		m := model.MethodSignature{
			Name:     fn.Name(),
			Receiver: receiverRef(fn, target.Ref),
		}

		for j := 0; j < sig.Params().Len(); j++ {
			v := sig.Params().At(j)
			vt := v.Type()
			variadic := sig.Variadic() && j == sig.Params().Len()-1
			if variadic {
				vt = vt.(*types.Slice).Elem()
			}
			pt, err := convert(vt)
			if err != nil {
				return nil, &UnknownParameterTypeError{Method: m.Name, Param: paramLabel(v.Name(), j), Type: types.TypeString(vt, nil)}
			}
			m.Params = append(m.Params, model.Parameter{Name: v.Name(), Type: pt, Variadic: variadic})
		}

		for j := 0; j < sig.Results().Len(); j++ {
			rt := sig.Results().At(j).Type()
			r, err := convert(rt)
			if err != nil {
				return nil, &UnknownParameterTypeError{Method: m.Name, Param: fmt.Sprintf("result %d", j), Type: types.TypeString(rt, nil)}
			}
			m.Results = append(m.Results, r)
		}

		if err := in.applyDefaults(ctx, &m, fn, table); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (in *Introspector) applyDefaults(ctx context.Context, m *model.MethodSignature, fn *types.Func, table *directive.Table) error {
	meta, ok := table.Method(m.Receiver, m.Name)
	if !ok || len(meta.Defaults) == 0 {
		return nil
	}

	pkg, err := in.loader.Package(ctx, m.Receiver.Path)
	if err != nil {
		return err
	}
	// Defaults are evaluated in the universe of the declaring package
	decl := findMethod(pkg.Types, m.Receiver.Name, m.Name)
	if decl == nil {
		decl = fn
	}
	sig := decl.Type().(*types.Signature)

	for _, d := range meta.Defaults {
		idx := -1
		for j := 0; j < sig.Params().Len(); j++ {
			if sig.Params().At(j).Name() == d.Param {
				idx = j
				break
			}
		}
		if idx < 0 {
			return &UnsupportedDefaultValueError{Method: m.Name, Param: d.Param, Expr: d.Expr, Reason: "no such parameter"}
		}
		if m.Params[idx].Variadic {
			return &UnsupportedDefaultValueError{Method: m.Name, Param: d.Param, Expr: d.Expr, Reason: "variadic parameters cannot have defaults"}
		}

		lit, err := buildDefault(in.loader.Fset(), pkg.Types, d, sig.Params().At(idx).Type())
		if err != nil {
			return &UnsupportedDefaultValueError{Method: m.Name, Param: d.Param, Expr: d.Expr, Reason: err.Error()}
		}
		m.Params[idx].Default = lit
	}
	return nil
}

func findMethod(pkg *types.Package, recv, name string) *types.Func {
	obj, ok := pkg.Scope().Lookup(recv).(*types.TypeName)
	if !ok {
		return nil
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil
	}
	for i := 0; i < named.NumMethods(); i++ {
		if named.Method(i).Name() == name {
			return named.Method(i)
		}
	}
	return nil
}

// receiverRef names the type declaring fn. Methods of embedded interfaces and
// unnamed types are attributed to the proxied type.
func receiverRef(fn *types.Func, fallback model.TypeRef) model.TypeRef {
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return fallback
	}
	t := recv.Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return fallback
	}
	obj := named.Origin().Obj()
	return model.TypeRef{Path: obj.Pkg().Path(), Package: obj.Pkg().Name(), Name: obj.Name()}
}

func paramLabel(name string, idx int) string {
	if name == "" || name == "_" {
		return fmt.Sprintf("param %d", idx)
	}
	return name
}
