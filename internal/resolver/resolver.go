// Package resolver produces the value for a single injection point.
package resolver

import (
	"context"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/registry"
	"github.com/xraph/locator/internal/shared"
)

// ServiceFactory obtains the service instance of a published descriptor,
// honouring its scope. ctx is the context of the resolution that needs it.
type ServiceFactory interface {
	ServiceFor(ctx context.Context, d *shared.ActiveDescriptor) (any, error)
}

// ServiceFactoryFunc adapts a function to ServiceFactory.
type ServiceFactoryFunc func(ctx context.Context, d *shared.ActiveDescriptor) (any, error)

func (f ServiceFactoryFunc) ServiceFor(ctx context.Context, d *shared.ActiveDescriptor) (any, error) {
	return f(ctx, d)
}

// Resolver resolves injectees against a registry. Custom resolvers registered
// for the injectee's marker take precedence over the registry lookup.
type Resolver struct {
	registry *registry.Registry
	services ServiceFactory
}

// New creates a Resolver.
func New(reg *registry.Registry, services ServiceFactory) *Resolver {
	return &Resolver{registry: reg, services: services}
}

// Resolve returns the value for injectee. An optional injectee that nothing
// satisfies resolves to nil without error.
func (r *Resolver) Resolve(ctx context.Context, injectee *shared.Injectee) (any, error) {
	if injectee == nil {
		return nil, errors.ErrInvalidArgument("Resolve", "injectee")
	}

	if d := r.registry.Resolver(injectee.Marker); d != nil {
		return r.delegate(ctx, d, injectee)
	}

	d, err := r.registry.FindInjecteeDescriptor(injectee)
	if err != nil {
		return nil, err
	}
	if d == nil {
		if injectee.Optional {
			return nil, nil
		}
		return nil, errors.NewUnsatisfiedDependency(injectee)
	}
	return r.services.ServiceFor(ctx, d)
}

func (r *Resolver) delegate(ctx context.Context, d *shared.ActiveDescriptor, injectee *shared.Injectee) (any, error) {
	svc, err := r.services.ServiceFor(ctx, d)
	if err != nil {
		return nil, err
	}

	custom, ok := svc.(shared.InjectionResolver)
	if !ok {
		return nil, errors.ErrNotInjectionResolver(d.Implementation(), svc)
	}

	var value any
	err = errors.Protect(func() error {
		var rerr error
		value, rerr = custom.Resolve(injectee)
		return rerr
	})
	if err != nil {
		return nil, errors.NewInvocation("resolve", d.Implementation(), "Resolve", err)
	}
	if value == nil && !injectee.Optional {
		return nil, errors.NewUnsatisfiedDependency(injectee)
	}
	return value, nil
}
