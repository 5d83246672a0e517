package errors

import (
	"fmt"

	"github.com/xraph/locator/internal/shared"
)

// UnsatisfiedDependencyError reports an injection point for which no
// descriptor and no custom resolver could supply a value.
type UnsatisfiedDependencyError struct {
	Injectee *shared.Injectee
}

func (e *UnsatisfiedDependencyError) Error() string {
	return "There was no object available for injection at " + e.Injectee.String()
}

func (e *UnsatisfiedDependencyError) Kind() Kind { return KindUnsatisfied }

// Is matches the unsatisfied dependency sentinel.
func (e *UnsatisfiedDependencyError) Is(target error) bool {
	t, ok := target.(*LocatorError)
	return ok && t.Code == CodeUnsatisfiedDependency
}

// NewUnsatisfiedDependency creates an UnsatisfiedDependencyError.
func NewUnsatisfiedDependency(injectee *shared.Injectee) *UnsatisfiedDependencyError {
	return &UnsatisfiedDependencyError{Injectee: injectee}
}

// ClassNotFoundError reports that a loader does not know an implementation.
type ClassNotFoundError struct {
	Name   string
	Loader string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class %s not found by %s loader", e.Name, e.Loader)
}

func (e *ClassNotFoundError) Kind() Kind { return KindLoad }

func (e *ClassNotFoundError) Is(target error) bool {
	t, ok := target.(*LocatorError)
	return ok && t.Code == CodeClassNotFound
}

// NewClassNotFound creates a ClassNotFoundError.
func NewClassNotFound(name, loader string) *ClassNotFoundError {
	return &ClassNotFoundError{Name: name, Loader: loader}
}

// InvocationError wraps a failure raised (or panicked) by user code: a
// constructor, a field setter, an initializer method or a lifecycle hook.
type InvocationError struct {
	Class  string
	Member string
	Phase  string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s %s of class %s failed: %v", e.Phase, e.Member, e.Class, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func (e *InvocationError) Kind() Kind { return KindInvocation }

func (e *InvocationError) Is(target error) bool {
	t, ok := target.(*LocatorError)
	return ok && t.Code == CodeInvocationFailed
}

// NewInvocation creates an InvocationError.
func NewInvocation(phase, class, member string, err error) *InvocationError {
	return &InvocationError{Class: class, Member: member, Phase: phase, Err: err}
}

// PanicError carries a value recovered from a panic in user code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Protect runs fn and converts a panic into a *PanicError.
func Protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
