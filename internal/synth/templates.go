package synth

import "text/template"

var proxyTemplate = template.Must(template.New("proxy").Parse(`// Code generated by memoproxy. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{.Alias}} {{printf "%q" .Path}}
{{- end}}
)

var (
{{- range .Assertions}}
	_ {{.}} = (*{{$.ProxyName}})(nil)
{{- end}}
)

// {{.InnerName}} is the method set {{.ProxyName}} forwards to.
type {{.InnerName}} interface {
{{- range .InnerMethods}}
	{{.}}
{{- end}}
}
{{range .Tuples}}
// {{.Name}} holds the results of {{.Method}}.
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end}}
// {{.ProxyName}} memoizes calls to {{.Original}}.
type {{.ProxyName}} struct {
	inner {{.InnerName}}
	pool  {{.Memoize}}.Pool
}

// New{{.ProxyName}} returns a proxy that forwards to inner and caches in pool.
func New{{.ProxyName}}(inner {{.InnerName}}, pool {{.Memoize}}.Pool) *{{.ProxyName}} {
	return &{{.ProxyName}}{inner: inner, pool: pool}
}
{{range .Methods}}
func (proxy *{{$.ProxyName}}) {{.Name}}({{.Params}}){{.Results}} {
{{- range .Defaults}}
	if {{.Param}} == {{.Zero}} {
		{{.Param}} = {{.Value}}
	}
{{- end}}
{{- if .Memoized}}
	memoCtx := {{.Ctx}}
	memoKey := {{$.Memoize}}.NewKey({{.ServiceID}}, {{.MethodName}})
{{- range .KeyArgs}}
	memoKey.Add({{.}})
{{- end}}
{{- if .Variadic}}
	for _, memoArg := range {{.Variadic}} {
		memoKey.Add(memoArg)
	}
{{- end}}
	memoItem := proxy.pool.GetItem(memoCtx, memoKey.String())
	if memoItem.IsHit() {
{{- if .HitType}}
		if memoCached, memoOK := {{$.Memoize}}.Value[{{.HitType}}](memoItem); memoOK {
			{{.HitReturn}}
		}
{{- else}}
		{{.HitReturn}}
{{- end}}
	}
	{{.Assign}}{{.Call}}
{{- if .ErrReturn}}
	if memoErr != nil {
		{{.ErrReturn}}
	}
{{- end}}
{{- if .SetExpr}}
	memoItem.Set({{.SetExpr}})
{{- end}}
	memoItem.ExpiresAfter({{.TTL}})
	proxy.pool.Save(memoCtx, memoItem)
{{- if .Return}}
	{{.Return}}
{{- end}}
{{- else}}
	{{.Forward}}
{{- end}}
}
{{end}}`))

var registrationTemplate = template.Must(template.New("registration").Parse(`// Code generated by memoproxy. DO NOT EDIT.

package {{.Package}}

import (
	memoize {{printf "%q" .MemoizePath}}
)

// Register decorates every memoized service held by c with its proxy.
func Register(c *memoize.Container) error {
{{- range .Decorations}}
	if err := memoize.DecorateWith(c, {{printf "%q" .ServiceID}}, {{printf "%q" .CacheServiceID}}, func(inner {{.InnerType}}, pool memoize.Pool) any {
		return {{.Constructor}}(inner, pool)
	}); err != nil {
		return err
	}
{{- end}}
	return nil
}
`))
