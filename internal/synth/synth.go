package synth

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// RegistrationFile is the name of the registration artifact
const RegistrationFile = "registry" + FileSuffix

// generatedLocals are identifiers generated method bodies declare
var generatedLocals = map[string]bool{
	"proxy":      true,
	"memoCtx":    true,
	"memoKey":    true,
	"memoItem":   true,
	"memoCached": true,
	"memoOK":     true,
	"memoResult": true,
	"memoErr":    true,
	"memoArg":    true,
}

// ErrNoInterfaces is returned for a descriptor without interfaces
var ErrNoInterfaces = errors.New("proxy descriptor has no interfaces")

// FormatError is returned when generated source does not parse
type FormatError struct {
	File   string
	Source []byte
	Err    error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %v", e.File, e.Err)
}

// Unwrap returns the go/format error
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Config configures a Synthesizer
type Config struct {
	// Package is the package clause of generated files
	Package string

	// ImportPath is the import path of the generated package. Types declared
	// there are not qualified.
	ImportPath string

	Logger memoize.Logger
}

// Synthesizer renders proxies and the registration file
type Synthesizer struct {
	cfg Config
}

// New creates a Synthesizer
func New(cfg Config) *Synthesizer {
	if cfg.Package == "" {
		cfg.Package = "memoized"
	}
	if cfg.Logger == nil {
		cfg.Logger = memoize.NewNoOpLogger()
	}
	return &Synthesizer{cfg: cfg}
}

type proxyView struct {
	Package      string
	Imports      []importView
	Memoize      string
	Assertions   []string
	ProxyName    string
	InnerName    string
	Original     string
	InnerMethods []string
	Tuples       []tupleView
	Methods      []methodView
}

type tupleView struct {
	Name   string
	Method string
	Fields []fieldView
}

type fieldView struct {
	Name string
	Type string
}

// defaultView reassigns Param to Value when it equals Zero, at the top of both
// memoized and forwarding bodies.
type defaultView struct {
	Param string
	Zero  string
	Value string
}

type methodView struct {
	Name     string
	Params   string
	Results  string
	Defaults []defaultView
	Memoized bool

	Ctx        string
	ServiceID  string
	MethodName string
	KeyArgs    []string
	Variadic   string

	HitType   string
	HitReturn string
	Assign    string
	Call      string
	ErrReturn string
	SetExpr   string
	TTL       string
	Return    string

	Forward string
}

// Proxy renders the proxy for desc
func (s *Synthesizer) Proxy(desc model.ProxyDescriptor) (model.GeneratedArtifact, error) {
	if len(desc.Interfaces) == 0 {
		return model.GeneratedArtifact{}, fmt.Errorf("%s: %w", desc.Original, ErrNoInterfaces)
	}

	name := ProxyName(desc)
	imports := newImportSet(s.cfg.ImportPath)
	imports.collect(desc)
	q := imports.qualify

	view := proxyView{
		Package:   s.cfg.Package,
		Memoize:   imports.use(MemoizePath),
		ProxyName: name,
		InnerName: name + "Inner",
		Original:  desc.Original.String(),
	}

	for _, iface := range desc.Interfaces {
		view.Assertions = append(view.Assertions, iface.Emit(q))
	}

	reserved := map[string]bool{name: true, view.InnerName: true}
	for _, m := range desc.Methods {
		reserved[tupleName(name, m.Name)] = true
	}

	for _, m := range desc.Methods {
		params := renameParams(m, reserved, imports)
		renamed := m
		renamed.Params = params
		view.InnerMethods = append(view.InnerMethods, renamed.Signature(q))

		mv := s.method(desc, name, renamed, imports)
		if m.Directive.Enabled && len(m.ValueResults()) > 1 {
			tuple := tupleView{Name: tupleName(name, m.Name), Method: m.Name}
			for i, r := range m.ValueResults() {
				tuple.Fields = append(tuple.Fields, fieldView{Name: "R" + strconv.Itoa(i), Type: r.Emit(q)})
			}
			view.Tuples = append(view.Tuples, tuple)
		}
		view.Methods = append(view.Methods, mv)
	}

	view.Imports = imports.list()

	src, err := render(proxyTemplate, view, FileName(name))
	if err != nil {
		return model.GeneratedArtifact{}, err
	}

	s.cfg.Logger.Debug("synthesized proxy",
		memoize.F("service", desc.ServiceID),
		memoize.F("proxy", name),
		memoize.F("methods", len(desc.Methods)))

	return model.GeneratedArtifact{FileName: FileName(name), Source: src, TypeName: name}, nil
}

func tupleName(proxy, method string) string {
	return proxy + method + "Result"
}

// renameParams gives every parameter a usable name that does not collide with
// generated identifiers or import aliases
func renameParams(m model.MethodSignature, reserved map[string]bool, imports *importSet) []model.Parameter {
	blocked := func(name string) bool {
		if name == "" || name == "_" || reserved[name] || imports.taken[name] || imports.isAlias(name) {
			return true
		}
		return strings.HasPrefix(name, "memoR") && isDigits(name[len("memoR"):])
	}

	out := make([]model.Parameter, len(m.Params))
	copy(out, m.Params)
	taken := map[string]bool{}
	for i, p := range out {
		if !blocked(p.Name) {
			taken[p.Name] = true
			continue
		}
		out[i].Name = ""
	}

	for i, p := range m.Params {
		if out[i].Name != "" {
			continue
		}
		base := p.Name
		// a memoR base only grows into more memoR<digits> names
		if base == "" || base == "_" || strings.HasPrefix(base, "memoR") {
			base = "arg" + strconv.Itoa(i)
		}
		name := base
		for n := 1; blocked(name) || taken[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		taken[name] = true
		out[i].Name = name
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *Synthesizer) method(desc model.ProxyDescriptor, proxy string, m model.MethodSignature, imports *importSet) methodView {
	q := imports.qualify
	mv := methodView{
		Name:     m.Name,
		Params:   paramList(m.Params, q),
		Results:  resultList(m.Results, q),
		Memoized: m.Directive.Enabled,
	}

	for _, p := range m.Params {
		if p.Default != nil {
			mv.Defaults = append(mv.Defaults, defaultView{Param: p.Name, Zero: p.Default.Zero, Value: p.Default.Emit(q)})
		}
	}

	call := "proxy.inner." + m.Name + "(" + argList(m.Params) + ")"
	if !mv.Memoized {
		if m.IsVoid() {
			mv.Forward = call
		} else {
			mv.Forward = "return " + call
		}
		return mv
	}

	keyParams := m.Params
	if m.TakesContext() {
		mv.Ctx = m.Params[0].Name
		keyParams = keyParams[1:]
	} else {
		mv.Ctx = imports.use("context") + ".Background()"
	}
	for _, p := range keyParams {
		if p.Variadic {
			mv.Variadic = p.Name
			continue
		}
		mv.KeyArgs = append(mv.KeyArgs, p.Name)
	}
	mv.ServiceID = strconv.Quote(desc.ServiceID)
	mv.MethodName = strconv.Quote(m.Name)
	mv.Call = call
	mv.TTL = strconv.Itoa(m.Directive.Seconds) + " * " + imports.use("time") + ".Second"

	values := m.ValueResults()
	withErr := m.ReturnsError()
	errSuffix := func(s string) string {
		if !withErr {
			return s
		}
		if s == "" {
			return "memoErr"
		}
		return s + ", memoErr"
	}
	nilSuffix := func(s string) string {
		if !withErr {
			return s
		}
		if s == "" {
			return "nil"
		}
		return s + ", nil"
	}

	switch len(values) {
	case 0:
		mv.HitReturn = strings.TrimSpace("return " + nilSuffix(""))
		if withErr {
			mv.Assign = "memoErr := "
			mv.ErrReturn = "return memoErr"
			mv.Return = "return nil"
		}
	case 1:
		mv.HitType = values[0].Emit(q)
		mv.HitReturn = "return " + nilSuffix("memoCached")
		mv.Assign = errSuffix("memoResult") + " := "
		mv.SetExpr = "memoResult"
		if withErr {
			mv.ErrReturn = "return memoResult, memoErr"
		}
		mv.Return = "return " + nilSuffix("memoResult")
	default:
		locals := make([]string, len(values))
		cached := make([]string, len(values))
		fields := make([]string, len(values))
		for i := range values {
			r := "R" + strconv.Itoa(i)
			locals[i] = "memo" + r
			cached[i] = "memoCached." + r
			fields[i] = r + ": memo" + r
		}
		all := strings.Join(locals, ", ")
		mv.HitType = tupleName(proxy, m.Name)
		mv.HitReturn = "return " + nilSuffix(strings.Join(cached, ", "))
		mv.Assign = errSuffix(all) + " := "
		mv.SetExpr = mv.HitType + "{" + strings.Join(fields, ", ") + "}"
		if withErr {
			mv.ErrReturn = "return " + all + ", memoErr"
		}
		mv.Return = "return " + nilSuffix(all)
	}

	return mv
}

func paramList(params []model.Parameter, q model.Qualifier) string {
	parts := make([]string, len(params))
	for i, p := range params {
		t := p.Type.Emit(q)
		if p.Variadic {
			t = "..." + t
		}
		parts[i] = p.Name + " " + t
	}
	return strings.Join(parts, ", ")
}

func resultList(results []model.TypeExpr, q model.Qualifier) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + results[0].Emit(q)
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Emit(q)
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func argList(params []model.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name
		if p.Variadic {
			parts[i] += "..."
		}
	}
	return strings.Join(parts, ", ")
}

type registrationView struct {
	Package     string
	MemoizePath string
	Decorations []model.Decoration
}

// Registration renders the file that decorates every service of a pass
func (s *Synthesizer) Registration(decorations []model.Decoration) (model.GeneratedArtifact, error) {
	src, err := render(registrationTemplate, registrationView{
		Package:     s.cfg.Package,
		MemoizePath: MemoizePath,
		Decorations: decorations,
	}, RegistrationFile)
	if err != nil {
		return model.GeneratedArtifact{}, err
	}
	return model.GeneratedArtifact{FileName: RegistrationFile, Source: src}, nil
}

func render(tmpl *template.Template, data any, file string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", file, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, &FormatError{File: file, Source: buf.Bytes(), Err: err}
	}
	return src, nil
}

// DecorationFor describes how the registration file installs a proxy
func DecorationFor(desc model.ProxyDescriptor, artifact model.GeneratedArtifact, cacheServiceID string) model.Decoration {
	return model.Decoration{
		ServiceID:      desc.ServiceID,
		CacheServiceID: cacheServiceID,
		ProxyType:      artifact.TypeName,
		Constructor:    "New" + artifact.TypeName,
		InnerType:      artifact.TypeName + "Inner",
	}
}
