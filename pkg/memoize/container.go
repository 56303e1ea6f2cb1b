package memoize

import (
	"fmt"
	"reflect"
	"sync"
)

// Decorator wraps the inner service of a container entry. Generated
// registration code installs one per memoized service.
type Decorator func(inner any, pool Pool) (any, error)

type decoration struct {
	poolID string
	fn     Decorator
}

// Container holds services and pools by id and applies decorators the first
// time a service is resolved.
type Container struct {
	mu         sync.Mutex
	services   map[string]any
	pools      map[string]Pool
	decorators map[string][]decoration
	resolved   map[string]any
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{
		services:   map[string]any{},
		pools:      map[string]Pool{},
		decorators: map[string][]decoration{},
		resolved:   map[string]any{},
	}
}

// Provide registers a service instance under id
func (c *Container) Provide(id string, service any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.services[id]; ok {
		return &DuplicateServiceError{ID: id}
	}
	c.services[id] = service
	return nil
}

// ProvidePool registers a cache pool under id
func (c *Container) ProvidePool(id string, pool Pool) error {
	if pool == nil {
		return ErrNilPool
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pools[id]; ok {
		return &DuplicateServiceError{ID: id}
	}
	c.pools[id] = pool
	return nil
}

// Decorate adds a decorator for the service id that receives the pool poolID.
// Decorators apply in registration order; the last one registered is outermost.
func (c *Container) Decorate(id, poolID string, fn Decorator) error {
	if fn == nil {
		return ErrNilDecorator
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.decorators[id] = append(c.decorators[id], decoration{poolID: poolID, fn: fn})
	delete(c.resolved, id)
	return nil
}

// Resolve returns the decorated service registered under id
func (c *Container) Resolve(id string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if svc, ok := c.resolved[id]; ok {
		return svc, nil
	}

	svc, ok := c.services[id]
	if !ok {
		return nil, &ServiceNotFoundError{ID: id}
	}

	for _, d := range c.decorators[id] {
		pool, ok := c.pools[d.poolID]
		if !ok {
			return nil, &PoolNotFoundError{ID: d.poolID}
		}
		decorated, err := d.fn(svc, pool)
		if err != nil {
			return nil, fmt.Errorf("decorate %s: %w", id, err)
		}
		svc = decorated
	}

	c.resolved[id] = svc
	return svc, nil
}

// Pool returns the pool registered under id
func (c *Container) Pool(id string) (Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pool, ok := c.pools[id]
	if !ok {
		return nil, &PoolNotFoundError{ID: id}
	}
	return pool, nil
}

// Resolve returns the service under id as a T
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T

	svc, err := c.Resolve(id)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, &DecoratorTypeError{ServiceID: id, Want: typeName[T](), Got: fmt.Sprintf("%T", svc)}
	}
	return typed, nil
}

// DecorateWith is the typed form of Decorate used by generated registration
// code. The inner service must satisfy I.
func DecorateWith[I any](c *Container, id, poolID string, ctor func(inner I, pool Pool) any) error {
	if ctor == nil {
		return ErrNilDecorator
	}
	return c.Decorate(id, poolID, func(inner any, pool Pool) (any, error) {
		typed, ok := inner.(I)
		if !ok {
			return nil, &DecoratorTypeError{ServiceID: id, Want: typeName[I](), Got: fmt.Sprintf("%T", inner)}
		}
		return ctor(typed, pool), nil
	})
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
