package synth

import (
	"go/types"
	"sort"
	"strconv"

	"github.com/vnykmshr/memoproxy/internal/model"
)

// MemoizePath is the import path of the runtime used by generated code
const MemoizePath = "github.com/vnykmshr/memoproxy/pkg/memoize"

// importSet assigns a unique alias to every imported package. The runtime,
// context and time keep their own names.
type importSet struct {
	self    string
	aliases map[string]string
	taken   map[string]bool
	used    map[string]bool
}

func newImportSet(self string) *importSet {
	s := &importSet{
		self:    self,
		aliases: map[string]string{},
		taken:   map[string]bool{},
		used:    map[string]bool{},
	}
	for _, name := range types.Universe.Names() {
		s.taken[name] = true
	}
	for name := range generatedLocals {
		s.taken[name] = true
	}
	s.reserve(MemoizePath, "memoize")
	s.reserve("context", "context")
	s.reserve("time", "time")
	return s
}

func (s *importSet) reserve(path, alias string) {
	s.aliases[path] = alias
	s.taken[alias] = true
}

// qualify is a model.Qualifier that records every package it is asked for
func (s *importSet) qualify(path, pkg string) string {
	if path == s.self && s.self != "" {
		return ""
	}
	alias, ok := s.aliases[path]
	if !ok {
		alias = pkg
		for n := 2; s.taken[alias]; n++ {
			alias = pkg + strconv.Itoa(n)
		}
		s.aliases[path] = alias
		s.taken[alias] = true
	}
	s.used[path] = true
	return alias
}

// use marks a reserved import as needed and returns its alias
func (s *importSet) use(path string) string {
	s.used[path] = true
	return s.aliases[path]
}

// isAlias reports whether name is an alias assigned so far
func (s *importSet) isAlias(name string) bool {
	for _, alias := range s.aliases {
		if alias == name {
			return true
		}
	}
	return false
}

type importView struct {
	Alias string
	Path  string
}

// list returns the needed imports sorted by path
func (s *importSet) list() []importView {
	out := make([]importView, 0, len(s.used))
	for path := range s.used {
		out = append(out, importView{Alias: s.aliases[path], Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// collect qualifies every named type of desc in a fixed order so aliases do
// not depend on template evaluation
func (s *importSet) collect(desc model.ProxyDescriptor) {
	visit := func(t model.TypeExpr) {
		if t.Kind == model.KindNamed {
			s.qualify(t.Path, t.Package)
		}
	}
	for _, iface := range desc.Interfaces {
		iface.Walk(visit)
	}
	for _, m := range desc.Methods {
		for _, p := range m.Params {
			p.Type.Walk(visit)
			if p.Default != nil {
				p.Default.Walk(visit)
			}
		}
		for _, r := range m.Results {
			r.Walk(visit)
		}
	}
}
