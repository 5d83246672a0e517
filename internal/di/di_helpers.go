package di

import (
	"fmt"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/shared"
)

// Resolve returns the service advertising the contract named after T.
func Resolve[T any](l *Locator) (T, error) {
	return ResolveContract[T](l, shared.TypeName[T]())
}

// ResolveContract returns the service of contract, typed as T.
func ResolveContract[T any](l *Locator, contract string) (T, error) {
	var zero T
	instance, err := l.GetService(contract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errors.ErrIllegalState("Resolve",
			fmt.Sprintf("service %s is a %T, not a %s", contract, instance, shared.TypeName[T]()))
	}
	return typed, nil
}

// Must resolves or panics - use only during startup
func Must[T any](l *Locator) T {
	instance, err := Resolve[T](l)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", shared.TypeName[T](), err))
	}
	return instance
}

// Bind stages and commits descriptors in one transaction.
func Bind(l *Locator, descriptors ...*shared.Descriptor) ([]*shared.ActiveDescriptor, error) {
	dc := l.CreateDynamicConfiguration()
	out := make([]*shared.ActiveDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		ad, err := dc.Bind(d)
		if err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	if err := dc.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// BindConstant publishes value under the contract named after T.
func BindConstant[T any](l *Locator, value T, contracts ...string) (*shared.ActiveDescriptor, error) {
	out, err := Bind(l, &shared.Descriptor{
		Implementation: shared.TypeName[T](),
		Contracts:      contracts,
		Scope:          shared.ScopeSingleton,
		Constant:       value,
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
