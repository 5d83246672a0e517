// Package loader maps implementation identities to the structural facts of
// their classes.
package loader

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/shared"
)

// Loader finds the Class of an implementation identity.
type Loader interface {
	Name() string
	Load(implementation string) (*shared.Class, error)
}

// Registry is a Loader backed by explicitly registered classes. It is safe
// for concurrent use.
type Registry struct {
	name   string
	mu     sync.RWMutex
	byName map[string]*shared.Class
	byType map[reflect.Type]*shared.Class
}

// NewRegistry creates an empty registry. name appears in load failures.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:   name,
		byName: make(map[string]*shared.Class),
		byType: make(map[reflect.Type]*shared.Class),
	}
}

func (r *Registry) Name() string { return r.name }

// Register adds classes, replacing any previous class of the same name. The
// batch is validated first; if any class is rejected none is registered.
func (r *Registry) Register(classes ...*shared.Class) error {
	for _, c := range classes {
		if c == nil {
			return errors.ErrInvalidArgument("Register", "class")
		}
		if !shared.ValidImplementationName(c.Name) {
			return errors.ErrMalformedImplementation(c.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range classes {
		r.byName[c.Name] = c
		if c.Type != nil {
			r.byType[indirect(c.Type)] = c
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(classes ...*shared.Class) {
	if err := r.Register(classes...); err != nil {
		panic(fmt.Sprintf("loader: %v", err))
	}
}

// Load returns the class registered under implementation.
func (r *Registry) Load(implementation string) (*shared.Class, error) {
	r.mu.RLock()
	c, ok := r.byName[implementation]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.NewClassNotFound(implementation, r.name)
	}
	return c, nil
}

// ClassOf returns the class of instance's dynamic type.
func (r *Registry) ClassOf(instance any) (*shared.Class, bool) {
	if instance == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byType[indirect(reflect.TypeOf(instance))]
	return c, ok
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Chain tries each loader in order. When every loader fails, all their
// failures are reported together.
type Chain []Loader

func (c Chain) Name() string { return "chain" }

func (c Chain) Load(implementation string) (*shared.Class, error) {
	collector := errors.NewCollector()
	for _, l := range c {
		class, err := l.Load(implementation)
		if err == nil {
			return class, nil
		}
		collector.Add(err)
	}
	if collector.Empty() {
		return nil, errors.NewClassNotFound(implementation, c.Name())
	}
	return nil, collector.Err()
}

// ClassOf asks every Registry in the chain for the class of instance.
func (c Chain) ClassOf(instance any) (*shared.Class, bool) {
	for _, l := range c {
		if r, ok := l.(interface {
			ClassOf(any) (*shared.Class, bool)
		}); ok {
			if class, found := r.ClassOf(instance); found {
				return class, true
			}
		}
	}
	return nil, false
}

var defaultRegistry = NewRegistry("context")

// Default returns the process-wide registry consulted after a locator's own.
func Default() *Registry { return defaultRegistry }

// Register adds classes to the process-wide registry.
func Register(classes ...*shared.Class) error {
	return defaultRegistry.Register(classes...)
}
