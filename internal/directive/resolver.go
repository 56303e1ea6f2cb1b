package directive

import (
	"github.com/vnykmshr/memoproxy/internal/model"
)

// DefaultSeconds is the process-wide lifetime used when no configuration
// overrides it
const DefaultSeconds = 300

// Resolver computes the effective directive of a method
type Resolver struct {
	table          *Table
	defaultSeconds int
}

// NewResolver creates a resolver. A non-positive defaultSeconds uses
// DefaultSeconds.
func NewResolver(table *Table, defaultSeconds int) *Resolver {
	if defaultSeconds <= 0 {
		defaultSeconds = DefaultSeconds
	}
	return &Resolver{table: table, defaultSeconds: defaultSeconds}
}

// Resolve returns the directive for method m of the proxied type target. The
// method-level directive is looked up on the type declaring the method, the
// class-level directive on target.
func (r *Resolver) Resolve(target model.TypeRef, m model.MethodSignature) model.Directive {
	class, _ := r.table.Type(target)
	method, _ := r.table.Method(m.Receiver, m.Name)

	if method.NoCache {
		return model.Directive{Enabled: false, Origin: model.OriginMethod}
	}

	var d model.Directive
	switch {
	case method.Cache != nil:
		d = *method.Cache
	case class.Cache != nil:
		d = *class.Cache
	default:
		return model.Directive{}
	}
	if !d.Enabled {
		return d
	}

	d.Seconds = r.defaultSeconds
	if class.Cache != nil && class.Cache.TTLSeconds != nil {
		d.Seconds = *class.Cache.TTLSeconds
	}
	if method.Cache != nil && method.Cache.TTLSeconds != nil {
		d.Seconds = *method.Cache.TTLSeconds
	}
	return d
}
