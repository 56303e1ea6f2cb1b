package introspect

import (
	"go/types"

	"github.com/vnykmshr/memoproxy/internal/model"
)

// convert turns a go/types type into the model spelling used by generated
// code. Types generated code cannot name fail with unknownTypeError.
func convert(t types.Type) (model.TypeExpr, error) {
	switch t := t.(type) {
	case *types.Alias:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return model.Builtin(obj.Name()), nil
		}
		if obj.Exported() && t.TypeArgs().Len() == 0 && t.TypeParams().Len() == 0 {
			return model.Named(obj.Pkg().Path(), obj.Pkg().Name(), obj.Name()), nil
		}
		return convert(types.Unalias(t))

	case *types.Basic:
		switch {
		case t.Kind() == types.Invalid, t.Kind() == types.UnsafePointer:
			return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
		case t.Info()&types.IsUntyped != 0:
			return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
		}
		return model.Builtin(t.Name()), nil

	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			// error and comparable
			return model.Builtin(obj.Name()), nil
		}
		if !obj.Exported() {
			return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
		}
		args := make([]model.TypeExpr, 0, t.TypeArgs().Len())
		for i := 0; i < t.TypeArgs().Len(); i++ {
			a, err := convert(t.TypeArgs().At(i))
			if err != nil {
				return model.TypeExpr{}, err
			}
			args = append(args, a)
		}
		return model.Named(obj.Pkg().Path(), obj.Pkg().Name(), obj.Name(), args...), nil

	case *types.Pointer:
		elem, err := convert(t.Elem())
		if err != nil {
			return model.TypeExpr{}, err
		}
		if elem.Kind == model.KindNamed && !elem.Nullable && len(elem.Args) == 0 {
			elem.Nullable = true
			return elem, nil
		}
		return model.PointerTo(elem), nil

	case *types.Slice:
		elem, err := convert(t.Elem())
		if err != nil {
			return model.TypeExpr{}, err
		}
		return model.SliceOf(elem), nil

	case *types.Array:
		elem, err := convert(t.Elem())
		if err != nil {
			return model.TypeExpr{}, err
		}
		return model.ArrayOf(t.Len(), elem), nil

	case *types.Map:
		key, err := convert(t.Key())
		if err != nil {
			return model.TypeExpr{}, err
		}
		elem, err := convert(t.Elem())
		if err != nil {
			return model.TypeExpr{}, err
		}
		return model.MapOf(key, elem), nil

	case *types.Chan:
		elem, err := convert(t.Elem())
		if err != nil {
			return model.TypeExpr{}, err
		}
		dir := model.ChanBoth
		switch t.Dir() {
		case types.SendOnly:
			dir = model.ChanSend
		case types.RecvOnly:
			dir = model.ChanRecv
		}
		return model.ChanOf(dir, elem), nil

	case *types.Signature:
		if t.TypeParams().Len() > 0 {
			return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
		}
		f, err := convertFunc(t)
		if err != nil {
			return model.TypeExpr{}, err
		}
		return model.FuncOf(f), nil

	case *types.Struct:
		out := model.TypeExpr{Kind: model.KindStruct}
		for i := 0; i < t.NumFields(); i++ {
			field := t.Field(i)
			if !field.Exported() {
				return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
			}
			ft, err := convert(field.Type())
			if err != nil {
				return model.TypeExpr{}, err
			}
			out.Fields = append(out.Fields, model.FieldExpr{
				Name:     field.Name(),
				Type:     ft,
				Embedded: field.Embedded(),
				Tag:      t.Tag(i),
			})
		}
		return out, nil

	case *types.Interface:
		return convertInterface(t)

	case *types.Union:
		terms := make([]model.Term, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			term := t.Term(i)
			tt, err := convert(term.Type())
			if err != nil {
				return model.TypeExpr{}, err
			}
			terms = append(terms, model.Term{Tilde: term.Tilde(), Type: tt})
		}
		return model.Union(terms...), nil
	}

	// type parameters, tuples
	return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
}

func convertInterface(t *types.Interface) (model.TypeExpr, error) {
	if t.NumExplicitMethods() == 0 && t.NumEmbeddeds() > 0 {
		members := make([]model.TypeExpr, 0, t.NumEmbeddeds())
		for i := 0; i < t.NumEmbeddeds(); i++ {
			m, err := convert(t.EmbeddedType(i))
			if err != nil {
				return model.TypeExpr{}, err
			}
			if m.Kind == model.KindUnion {
				// a type set, not an intersection of interfaces
				return convertInterfaceLiteral(t)
			}
			members = append(members, m)
		}
		return model.Intersection(members...), nil
	}
	return convertInterfaceLiteral(t)
}

func convertInterfaceLiteral(t *types.Interface) (model.TypeExpr, error) {
	out := model.TypeExpr{Kind: model.KindInterface}
	for i := 0; i < t.NumEmbeddeds(); i++ {
		e, err := convert(t.EmbeddedType(i))
		if err != nil {
			return model.TypeExpr{}, err
		}
		out.Embeds = append(out.Embeds, e)
	}
	for i := 0; i < t.NumExplicitMethods(); i++ {
		m := t.ExplicitMethod(i)
		if !m.Exported() {
			return model.TypeExpr{}, &unknownTypeError{typ: t.String()}
		}
		f, err := convertFunc(m.Type().(*types.Signature))
		if err != nil {
			return model.TypeExpr{}, err
		}
		out.Methods = append(out.Methods, model.MethodExpr{Name: m.Name(), Func: f})
	}
	return out, nil
}

func convertFunc(sig *types.Signature) (model.FuncExpr, error) {
	f := model.FuncExpr{Variadic: sig.Variadic()}
	for i := 0; i < sig.Params().Len(); i++ {
		pt := sig.Params().At(i).Type()
		if f.Variadic && i == sig.Params().Len()-1 {
			pt = pt.(*types.Slice).Elem()
		}
		p, err := convert(pt)
		if err != nil {
			return model.FuncExpr{}, err
		}
		f.Params = append(f.Params, p)
	}
	results, err := convertTuple(sig.Results())
	if err != nil {
		return model.FuncExpr{}, err
	}
	f.Results = results
	return f, nil
}

func convertTuple(tuple *types.Tuple) ([]model.TypeExpr, error) {
	if tuple.Len() == 0 {
		return nil, nil
	}
	out := make([]model.TypeExpr, 0, tuple.Len())
	for i := 0; i < tuple.Len(); i++ {
		t, err := convert(tuple.At(i).Type())
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
