// Package orchestrator drives a generation pass: it resolves every service
// tagged memoizable, synthesizes its proxy and registers the proxy as the
// service's decorator.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/vnykmshr/memoproxy/internal/artifact"
	"github.com/vnykmshr/memoproxy/internal/config"
	"github.com/vnykmshr/memoproxy/internal/directive"
	"github.com/vnykmshr/memoproxy/internal/introspect"
	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/internal/registry"
	"github.com/vnykmshr/memoproxy/internal/synth"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// Options configures an Orchestrator. Registry, Loader, Synthesizer and
// Artifacts are required.
type Options struct {
	Enabled               bool
	CacheService          string
	DefaultMemoizeSeconds int
	Staged                bool

	// Scan lists packages searched for //memoize:service markers
	Scan              []string
	InterfacePackages []string

	Registry    *registry.Registry
	Loader      *introspect.Loader
	Synthesizer *synth.Synthesizer
	Artifacts   *artifact.Manager
	Logger      memoize.Logger
}

// Orchestrator runs generation passes
type Orchestrator struct {
	opts         Options
	introspector *introspect.Introspector
	logger       memoize.Logger
}

// ProxyResult describes one generated proxy
type ProxyResult struct {
	ServiceID string `json:"service_id"`
	Type      string `json:"type"`
	ProxyType string `json:"proxy_type"`
	File      string `json:"file"`
	Methods   int    `json:"methods"`
	Memoized  int    `json:"memoized"`
}

// Result summarizes a pass
type Result struct {
	PassID string `json:"pass_id,omitempty"`

	// Disabled is set when the pass was skipped by configuration
	Disabled bool `json:"disabled,omitempty"`

	Proxies      []ProxyResult `json:"proxies"`
	Registration string        `json:"registration,omitempty"`
	Skipped      []string      `json:"skipped,omitempty"`
	Removed      int           `json:"removed"`
	WipeFailures int           `json:"wipe_failures"`
}

// New creates an Orchestrator
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = memoize.NewNoOpLogger()
	}
	if opts.DefaultMemoizeSeconds <= 0 {
		opts.DefaultMemoizeSeconds = directive.DefaultSeconds
	}
	return &Orchestrator{
		opts:         opts,
		introspector: introspect.New(opts.Loader, opts.InterfacePackages, opts.Logger),
		logger:       opts.Logger,
	}
}

// FromConfig builds an Orchestrator and its collaborators from cfg. Services
// of the config file are added to a fresh registry.
func FromConfig(cfg *config.Config, logger memoize.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = memoize.NewNoOpLogger()
	}

	reg := registry.New()
	for _, def := range cfg.Definitions() {
		if err := reg.Add(def); err != nil {
			return nil, err
		}
	}

	return New(Options{
		Enabled:               cfg.Enabled,
		CacheService:          cfg.CacheService,
		DefaultMemoizeSeconds: cfg.DefaultMemoizeSeconds,
		Staged:                cfg.Staged,
		Scan:                  cfg.Scan,
		InterfacePackages:     cfg.InterfacePackages,
		Registry:              reg,
		Loader: introspect.NewLoader(introspect.LoaderConfig{
			Dir:       cfg.Dir,
			BuildTags: cfg.BuildTags,
			Logger:    logger,
		}),
		Synthesizer: synth.New(synth.Config{
			Package:    cfg.Package,
			ImportPath: cfg.ImportPath,
			Logger:     logger,
		}),
		Artifacts: artifact.New(artifact.Config{
			Dir:    cfg.TargetDirectory,
			Suffix: synth.FileSuffix,
			Logger: logger,
		}),
		Logger: logger,
	}), nil
}

// Registry returns the registry the orchestrator reads and decorates
func (o *Orchestrator) Registry() *registry.Registry {
	return o.opts.Registry
}

// writer is the destination of a pass: the output directory or a stage
type writer interface {
	Write(model.GeneratedArtifact) (string, error)
}

// Run executes one pass. Any error aborts it; in staged mode the previous
// artifacts are left untouched, otherwise the files written by the failed
// pass are removed.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.opts.Enabled {
		o.logger.Info("memoization disabled, skipping generation")
		return &Result{Disabled: true}, nil
	}

	res := &Result{PassID: uuid.NewString()}
	log := o.logger.With(memoize.F("pass", res.PassID))
	arts := o.opts.Artifacts

	if err := arts.EnsureDirectory(); err != nil {
		return nil, err
	}

	var (
		out     writer = arts
		stage   *artifact.Stage
		written []string
	)
	if o.opts.Staged {
		s, err := arts.Stage()
		if err != nil {
			return nil, err
		}
		stage = s
		out = s
	} else {
		wiped, err := arts.Wipe()
		if err != nil {
			return nil, err
		}
		res.Removed, res.WipeFailures = wiped.Removed, wiped.Failed
	}

	fail := func(err error) (*Result, error) {
		if stage != nil {
			stage.Discard()
		} else {
			for _, path := range written {
				if rmErr := os.Remove(path); rmErr != nil {
					log.Warn("could not remove proxy of failed pass", memoize.F("file", path), memoize.F("error", rmErr))
				}
			}
		}
		log.Error("generation failed", memoize.F("error", err))
		return nil, err
	}

	table, defs, err := o.prepare(ctx)
	if err != nil {
		return fail(err)
	}

	for _, def := range defs {
		desc, err := o.describe(ctx, def, table)
		if errors.Is(err, errTypeMissing) {
			log.Warn("service type not found, skipping", memoize.F("service", def.ID), memoize.F("type", def.Type))
			res.Skipped = append(res.Skipped, def.ID)
			continue
		}
		if err != nil {
			return fail(err)
		}

		art, err := o.opts.Synthesizer.Proxy(desc)
		if err != nil {
			return fail(&ServiceError{ServiceID: def.ID, Err: err})
		}
		path, err := out.Write(art)
		if err != nil {
			return fail(err)
		}
		written = append(written, path)

		if err := o.opts.Registry.Decorate(synth.DecorationFor(desc, art, o.opts.CacheService)); err != nil {
			return fail(&ServiceError{ServiceID: def.ID, Err: err})
		}

		pr := ProxyResult{
			ServiceID: def.ID,
			Type:      desc.Original.String(),
			ProxyType: art.TypeName,
			File:      art.FileName,
			Methods:   len(desc.Methods),
		}
		for _, m := range desc.Methods {
			if m.Directive.Enabled {
				pr.Memoized++
			}
		}
		res.Proxies = append(res.Proxies, pr)
		log.Info("generated proxy",
			memoize.F("service", pr.ServiceID),
			memoize.F("proxy", pr.ProxyType),
			memoize.F("methods", pr.Methods),
			memoize.F("memoized", pr.Memoized))
	}

	reg, err := o.opts.Synthesizer.Registration(o.opts.Registry.Decorations())
	if err != nil {
		return fail(err)
	}
	path, err := out.Write(reg)
	if err != nil {
		return fail(err)
	}
	written = append(written, path)
	res.Registration = reg.FileName

	if stage != nil {
		wiped, err := stage.Commit()
		if err != nil {
			return fail(err)
		}
		res.Removed, res.WipeFailures = wiped.Removed, wiped.Failed
	}

	log.Info("generation complete",
		memoize.F("proxies", len(res.Proxies)),
		memoize.F("skipped", len(res.Skipped)),
		memoize.F("dir", arts.Dir()))
	return res, nil
}

// Describe introspects every memoizable service without writing anything.
// Missing types are left out.
func (o *Orchestrator) Describe(ctx context.Context) ([]model.ProxyDescriptor, error) {
	table, defs, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.ProxyDescriptor
	for _, def := range defs {
		desc, err := o.describe(ctx, def, table)
		if errors.Is(err, errTypeMissing) {
			o.logger.Warn("service type not found, skipping", memoize.F("service", def.ID), memoize.F("type", def.Type))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// prepare loads every package the pass needs in one batch, so service types
// and interfaces share a type universe, builds the directive table of the
// scanned packages and registers their //memoize:service markers.
func (o *Orchestrator) prepare(ctx context.Context) (*directive.Table, []registry.Definition, error) {
	loader := o.opts.Loader
	reg := o.opts.Registry

	paths := append([]string(nil), o.opts.Scan...)
	paths = append(paths, o.opts.InterfacePackages...)
	for _, def := range reg.Tagged(registry.TagMemoizable) {
		if p, _, err := introspect.SplitQualified(def.Type); err == nil {
			paths = append(paths, p)
		}
		for _, iface := range def.Interfaces {
			if p, _, err := introspect.SplitQualified(iface); err == nil {
				paths = append(paths, p)
			}
		}
	}
	if err := loader.Load(ctx, paths...); err != nil {
		return nil, nil, err
	}

	table := directive.NewTable()
	for _, p := range o.opts.Scan {
		if err := o.addPackage(ctx, table, p); err != nil {
			return nil, nil, err
		}
	}
	for _, svc := range table.Services() {
		if _, ok := reg.Get(svc.ID); ok {
			o.logger.Debug("service already defined, ignoring marker", memoize.F("service", svc.ID))
			continue
		}
		if err := reg.Add(registry.Definition{
			ID:   svc.ID,
			Type: svc.Type.String(),
			Tags: []string{registry.TagMemoizable},
		}); err != nil {
			return nil, nil, err
		}
		o.logger.Debug("discovered service", memoize.F("service", svc.ID), memoize.F("type", svc.Type.String()))
	}

	return table, reg.Tagged(registry.TagMemoizable), nil
}

func (o *Orchestrator) addPackage(ctx context.Context, table *directive.Table, path string) error {
	pkg, err := o.opts.Loader.Package(ctx, path)
	if err != nil {
		return err
	}
	return table.AddPackage(o.opts.Loader.Fset(), pkg.PkgPath, pkg.Name, pkg.Syntax)
}

// describe builds the proxy descriptor of one service
func (o *Orchestrator) describe(ctx context.Context, def registry.Definition, table *directive.Table) (model.ProxyDescriptor, error) {
	in := o.introspector

	target, err := in.Resolve(ctx, def.Type)
	if introspect.IsTypeNotFound(err) {
		return model.ProxyDescriptor{}, fmt.Errorf("service %q: %w: %w", def.ID, errTypeMissing, err)
	}
	if err != nil {
		return model.ProxyDescriptor{}, wrapService(def.ID, err)
	}

	ifaces, err := in.Interfaces(ctx, target, def.Interfaces)
	if err != nil {
		return model.ProxyDescriptor{}, wrapService(def.ID, err)
	}
	if len(ifaces) == 0 {
		return model.ProxyDescriptor{}, &ClassWithoutInterfaceError{ServiceID: def.ID, Type: def.Type}
	}

	for _, p := range in.DeclaringPackages(target) {
		if err := o.addPackage(ctx, table, p); err != nil {
			return model.ProxyDescriptor{}, wrapService(def.ID, err)
		}
	}

	methods, err := in.Methods(ctx, target, table)
	if err != nil {
		return model.ProxyDescriptor{}, wrapService(def.ID, err)
	}

	resolver := directive.NewResolver(table, o.opts.DefaultMemoizeSeconds)
	for i := range methods {
		methods[i].Directive = resolver.Resolve(target.Ref, methods[i])
	}

	return model.ProxyDescriptor{
		ServiceID:  def.ID,
		Original:   target.Ref,
		Interfaces: ifaces,
		Methods:    methods,
		Source:     target.Source,
	}, nil
}

// errTypeMissing marks a service whose type does not exist; the pass skips it
var errTypeMissing = errors.New("service type missing")

func wrapService(id string, err error) error {
	return &ServiceError{ServiceID: id, Err: err}
}
