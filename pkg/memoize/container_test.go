package memoize

import (
	"errors"
	"testing"
)

type greeter interface {
	Greet(name string) string
}

type plainGreeter struct{}

func (plainGreeter) Greet(name string) string { return "hello " + name }

type loudGreeter struct {
	inner greeter
	pool  Pool
}

func (g *loudGreeter) Greet(name string) string { return g.inner.Greet(name) + "!" }

func newLoud(inner greeter, pool Pool) any { return &loudGreeter{inner: inner, pool: pool} }

func newTestPool(t *testing.T) *StorePool {
	t.Helper()
	pool, err := NewPool(nil)
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	return pool
}

func TestContainerDecorates(t *testing.T) {
	c := NewContainer()
	pool := newTestPool(t)

	if err := c.Provide("greeter", plainGreeter{}); err != nil {
		t.Fatalf("Provide failed: %v", err)
	}
	if err := c.ProvidePool("cache", pool); err != nil {
		t.Fatalf("ProvidePool failed: %v", err)
	}
	if err := DecorateWith(c, "greeter", "cache", newLoud); err != nil {
		t.Fatalf("DecorateWith failed: %v", err)
	}

	g, err := Resolve[greeter](c, "greeter")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := g.Greet("bob"); got != "hello bob!" {
		t.Fatalf("Expected decorated greeting, got %q", got)
	}

	loud, ok := g.(*loudGreeter)
	if !ok || loud.pool != Pool(pool) {
		t.Fatal("Expected decorator to receive the registered pool")
	}

	again, _ := Resolve[greeter](c, "greeter")
	if again != g {
		t.Fatal("Expected the decorated instance to be reused")
	}
}

func TestContainerErrors(t *testing.T) {
	c := NewContainer()

	if _, err := c.Resolve("missing"); !IsServiceNotFound(err) {
		t.Fatalf("Expected ServiceNotFoundError, got %v", err)
	}

	_ = c.Provide("greeter", plainGreeter{})
	var dup *DuplicateServiceError
	if err := c.Provide("greeter", plainGreeter{}); !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateServiceError, got %v", err)
	}

	if err := c.ProvidePool("cache", nil); !errors.Is(err, ErrNilPool) {
		t.Fatalf("Expected ErrNilPool, got %v", err)
	}
	if err := c.Decorate("greeter", "cache", nil); !errors.Is(err, ErrNilDecorator) {
		t.Fatalf("Expected ErrNilDecorator, got %v", err)
	}

	_ = DecorateWith(c, "greeter", "cache", newLoud)
	var noPool *PoolNotFoundError
	if _, err := c.Resolve("greeter"); !errors.As(err, &noPool) {
		t.Fatalf("Expected PoolNotFoundError, got %v", err)
	}
}

func TestContainerDecoratorTypeMismatch(t *testing.T) {
	c := NewContainer()
	_ = c.Provide("greeter", 42)
	_ = c.ProvidePool("cache", newTestPool(t))
	_ = DecorateWith(c, "greeter", "cache", newLoud)

	_, err := c.Resolve("greeter")
	var typeErr *DecoratorTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("Expected DecoratorTypeError, got %v", err)
	}
	if typeErr.Got != "int" {
		t.Fatalf("Expected Got int, got %q", typeErr.Got)
	}

	_ = c.Provide("number", 7)
	if _, err := Resolve[greeter](c, "number"); !errors.As(err, &typeErr) {
		t.Fatalf("Expected DecoratorTypeError from Resolve, got %v", err)
	}
}
