// Package registry holds the build-time service definitions a generation pass
// iterates over and the decorations it produces.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/vnykmshr/memoproxy/internal/model"
)

// TagMemoizable marks a definition whose type gets a caching proxy
const TagMemoizable = "memoizable"

// ErrEmptyID is returned for a definition or decoration without an id
var ErrEmptyID = errors.New("registry: empty service id")

// DuplicateServiceError is returned when an id is defined or decorated twice
type DuplicateServiceError struct {
	ID string
}

// Error implements the error interface
func (e *DuplicateServiceError) Error() string {
	return "registry: duplicate service " + strconv.Quote(e.ID)
}

// ServiceNotFoundError is returned when a decoration names an unknown service
type ServiceNotFoundError struct {
	ID string
}

// Error implements the error interface
func (e *ServiceNotFoundError) Error() string {
	return "registry: service " + strconv.Quote(e.ID) + " not found"
}

// IsDuplicateService reports whether err is a DuplicateServiceError
func IsDuplicateService(err error) bool {
	var target *DuplicateServiceError
	return errors.As(err, &target)
}

// IsServiceNotFound reports whether err is a ServiceNotFoundError
func IsServiceNotFound(err error) bool {
	var target *ServiceNotFoundError
	return errors.As(err, &target)
}

// Definition describes one service
type Definition struct {
	ID string

	// Type is the qualified name import/path.Name of the concrete type
	Type string

	Tags []string

	// Interfaces overrides interface discovery when set
	Interfaces []string
}

// HasTag reports whether the definition carries tag
func (d Definition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Registry is an in-memory set of definitions keyed by id. It is used by a
// single pass and is not safe for concurrent use.
type Registry struct {
	defs        map[string]Definition
	decorations map[string]model.Decoration
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		defs:        map[string]Definition{},
		decorations: map[string]model.Decoration{},
	}
}

// Add stores a definition
func (r *Registry) Add(def Definition) error {
	if def.ID == "" {
		return ErrEmptyID
	}
	if _, ok := r.defs[def.ID]; ok {
		return &DuplicateServiceError{ID: def.ID}
	}
	def.Tags = append([]string(nil), def.Tags...)
	def.Interfaces = append([]string(nil), def.Interfaces...)
	r.defs[def.ID] = def
	return nil
}

// Get returns the definition stored under id
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Len returns the number of definitions
func (r *Registry) Len() int {
	return len(r.defs)
}

// Tagged returns the definitions carrying tag, sorted by id
func (r *Registry) Tagged(tag string) []Definition {
	var out []Definition
	for _, def := range r.defs {
		if def.HasTag(tag) {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Decorate records that d.ServiceID is replaced by a generated proxy
func (r *Registry) Decorate(d model.Decoration) error {
	if d.ServiceID == "" {
		return ErrEmptyID
	}
	if _, ok := r.defs[d.ServiceID]; !ok {
		return &ServiceNotFoundError{ID: d.ServiceID}
	}
	if _, ok := r.decorations[d.ServiceID]; ok {
		return &DuplicateServiceError{ID: d.ServiceID}
	}
	r.decorations[d.ServiceID] = d
	return nil
}

// Decoration returns the decoration of id
func (r *Registry) Decoration(id string) (model.Decoration, bool) {
	d, ok := r.decorations[id]
	return d, ok
}

// Decorations returns every decoration sorted by service id
func (r *Registry) Decorations() []model.Decoration {
	out := make([]model.Decoration, 0, len(r.decorations))
	for _, d := range r.decorations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID < out[j].ServiceID })
	return out
}

// String summarizes the registry for log output
func (r *Registry) String() string {
	return fmt.Sprintf("registry{services: %d, decorations: %d}", len(r.defs), len(r.decorations))
}
