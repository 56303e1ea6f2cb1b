package directive

import (
	"go/ast"
	"go/token"
	"sort"

	"github.com/vnykmshr/memoproxy/internal/model"
)

// TypeMeta holds the directives declared on a type
type TypeMeta struct {
	Cache *model.Directive

	// Service is set when the type carries //memoize:service
	Service *string

	ref model.TypeRef
}

// MethodMeta holds the directives declared on a method
type MethodMeta struct {
	Cache    *model.Directive
	NoCache  bool
	Defaults []Default
}

// Default returns the default declared for param
func (m MethodMeta) Default(param string) (Default, bool) {
	for _, d := range m.Defaults {
		if d.Param == param {
			return d, true
		}
	}
	return Default{}, false
}

// Service is a type marked with //memoize:service
type Service struct {
	ID   string
	Type model.TypeRef
}

// Table is the metadata table of every directive found in the added files
type Table struct {
	types   map[string]TypeMeta
	methods map[string]MethodMeta
	pkgs    map[string]bool
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		types:   map[string]TypeMeta{},
		methods: map[string]MethodMeta{},
		pkgs:    map[string]bool{},
	}
}

// AddPackage records the directives of a package's files. Adding the same
// package twice is a no-op.
func (t *Table) AddPackage(fset *token.FileSet, path, name string, files []*ast.File) error {
	if t.pkgs[path] {
		return nil
	}

	v := &collector{fset: fset, path: path, name: name, table: t}
	for _, f := range files {
		ast.Walk(v, f)
		if v.err != nil {
			return v.err
		}
	}
	t.pkgs[path] = true
	return nil
}

// Type returns the directives of a type
func (t *Table) Type(ref model.TypeRef) (TypeMeta, bool) {
	m, ok := t.types[ref.String()]
	return m, ok
}

// Method returns the directives of a method declared on recv
func (t *Table) Method(recv model.TypeRef, name string) (MethodMeta, bool) {
	m, ok := t.methods[recv.String()+"."+name]
	return m, ok
}

// Services returns the types marked with //memoize:service sorted by id. An
// empty marker id defaults to path.Type.
func (t *Table) Services() []Service {
	var out []Service
	for _, meta := range t.types {
		if meta.Service == nil {
			continue
		}
		ref := meta.ref
		id := *meta.Service
		if id == "" {
			id = ref.String()
		}
		out = append(out, Service{ID: id, Type: ref})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// collector is the ast.Visitor that fills a Table
type collector struct {
	fset  *token.FileSet
	path  string
	name  string
	table *Table
	err   error
}

func (c *collector) Visit(node ast.Node) ast.Visitor {
	if c.err != nil {
		return nil
	}

	switch n := node.(type) {
	case *ast.File:
		return c
	case *ast.GenDecl:
		if n.Tok != token.TYPE {
			return nil
		}
		for _, spec := range n.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(n.Specs) == 1 {
				doc = n.Doc
			}
			p, err := parseGroup(c.fset, doc, siteType)
			if err != nil {
				c.err = err
				return nil
			}
			if p.cache != nil || p.service != nil {
				ref := model.TypeRef{Path: c.path, Package: c.name, Name: ts.Name.Name}
				c.table.types[ref.String()] = TypeMeta{Cache: p.cache, Service: p.service, ref: ref}
			}
		}
		return nil
	case *ast.FuncDecl:
		at := siteFunc
		recv := receiverName(n)
		if recv != "" {
			at = siteMethod
		}
		p, err := parseGroup(c.fset, n.Doc, at)
		if err != nil {
			c.err = err
			return nil
		}
		if at == siteMethod && (p.cache != nil || p.noCache || len(p.defaults) > 0) {
			c.table.methods[c.path+"."+recv+"."+n.Name.Name] = MethodMeta{
				Cache:    p.cache,
				NoCache:  p.noCache,
				Defaults: p.defaults,
			}
		}
		return nil
	default:
		return nil
	}
}

// receiverName returns the base type name of a method receiver
func receiverName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	expr := fd.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}
