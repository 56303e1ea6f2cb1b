package introspect

import (
	"context"
	"go/token"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// LoadMode is the information loaded for every package
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// LoaderConfig configures a Loader
type LoaderConfig struct {
	// Dir is the directory go list runs in, normally the module root
	Dir string

	// BuildTags are passed as -tags
	BuildTags []string

	// Env overrides the environment of go list; nil inherits it
	Env []string

	Logger memoize.Logger
}

// Loader loads packages once per pass and caches them by import path.
// Packages loaded by one Load call share a type universe, so types from
// different packages can only be compared when they were loaded together.
type Loader struct {
	cfg   LoaderConfig
	fset  *token.FileSet
	pkgs  map[string]*packages.Package
	batch map[string]int
	loads int
}

// NewLoader creates a loader
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Logger == nil {
		cfg.Logger = memoize.NewNoOpLogger()
	}
	return &Loader{
		cfg:   cfg,
		fset:  token.NewFileSet(),
		pkgs:  map[string]*packages.Package{},
		batch: map[string]int{},
	}
}

// Fset returns the file set shared by every loaded package
func (l *Loader) Fset() *token.FileSet {
	return l.fset
}

// Load loads every path not loaded yet in a single batch
func (l *Loader) Load(ctx context.Context, paths ...string) error {
	var missing []string
	seen := map[string]bool{}
	for _, p := range paths {
		if _, ok := l.pkgs[p]; ok || seen[p] || p == "" {
			continue
		}
		seen[p] = true
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     l.cfg.Dir,
		Env:     l.cfg.Env,
		Fset:    l.fset,
	}
	if len(l.cfg.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.cfg.BuildTags, ",")}
	}

	l.cfg.Logger.Debug("loading packages", memoize.F("packages", strings.Join(missing, ",")))
	loaded, err := packages.Load(cfg, missing...)
	if err != nil {
		return err
	}

	var errs []string
	packages.Visit(loaded, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e.Error())
		}
	})
	if len(errs) > 0 {
		return &LoadError{Errors: errs}
	}

	l.loads++
	for _, p := range loaded {
		l.pkgs[p.PkgPath] = p
		l.batch[p.PkgPath] = l.loads
	}
	for _, p := range missing {
		if _, ok := l.pkgs[p]; !ok {
			return &LoadError{Errors: []string{"package " + p + " not found"}}
		}
	}
	return nil
}

// Package returns the package at path, loading it if needed
func (l *Loader) Package(ctx context.Context, path string) (*packages.Package, error) {
	if err := l.Load(ctx, path); err != nil {
		return nil, err
	}
	return l.pkgs[path], nil
}

// sameBatch reports whether two loaded packages share a type universe
func (l *Loader) sameBatch(a, b string) bool {
	ba, ok := l.batch[a]
	return ok && ba == l.batch[b]
}
