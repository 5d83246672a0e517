// Package locator is a runtime service locator. Bindings are published
// through configuration transactions and resolved into instances whose
// dependencies are injected and whose lifecycle hooks are run.
//
// Failures are reported in bulk: an operation that can fail in several places
// keeps going and returns every cause in a *MultiError.
package locator

import (
	"reflect"

	"github.com/xraph/locator/internal/di"
	"github.com/xraph/locator/internal/dynconfig"
	"github.com/xraph/locator/internal/lifecycle"
	"github.com/xraph/locator/internal/loader"
	"github.com/xraph/locator/internal/shared"
)

// Locator resolves services and manages their lifecycle.
type Locator = di.Locator

// ServiceHandle is a lazy reference to the service of a descriptor.
type ServiceHandle = di.ServiceHandle

// ConfigurationService hands out configuration transactions.
type ConfigurationService = di.ConfigurationService

// DynamicConfiguration is a single-use configuration transaction.
type DynamicConfiguration = dynconfig.Configuration

// Option configures a Locator.
type Option = di.Option

// Data model
type (
	Descriptor        = shared.Descriptor
	ActiveDescriptor  = shared.ActiveDescriptor
	Filter            = shared.Filter
	Injectee          = shared.Injectee
	InjectionPoint    = shared.InjectionPoint
	Unqualified       = shared.Unqualified
	Class             = shared.Class
	Constructor       = shared.Constructor
	Field             = shared.Field
	Method            = shared.Method
	Param             = shared.Param
	Hook              = shared.Hook
	TypeArg           = shared.TypeArg
	InjectionResolver = shared.InjectionResolver
	PostConstructor   = shared.PostConstructor
	PreDestroyer      = shared.PreDestroyer
)

// Loader finds the class facts of an implementation.
type (
	Loader        = loader.Loader
	ClassRegistry = loader.Registry
)

// LifecycleState is the state of an instance managed by the locator.
type LifecycleState = lifecycle.State

const (
	InjectMarker        = shared.InjectMarker
	PostConstructMarker = shared.PostConstructMarker
	PreDestroyMarker    = shared.PreDestroyMarker

	InjectionResolverContract           = shared.InjectionResolverContract
	ServiceLocatorContract              = shared.ServiceLocatorContract
	DynamicConfigurationServiceContract = shared.DynamicConfigurationServiceContract

	PerLookup = shared.ScopePerLookup
	Singleton = shared.ScopeSingleton

	FieldPosition = shared.FieldPosition

	TypeArgNone     = shared.TypeArgNone
	TypeArgVariable = shared.TypeArgVariable
	TypeArgConcrete = shared.TypeArgConcrete
)

// Constructors and options
var (
	New                  = di.New
	NewFromConfig        = di.NewFromConfig
	WithName             = di.WithName
	WithLogger           = di.WithLogger
	WithMetrics          = di.WithMetrics
	WithTracerProvider   = di.WithTracerProvider
	WithTracerName       = di.WithTracerName
	WithFallbackLoader   = di.WithFallbackLoader
	WithoutContextLoader = di.WithoutContextLoader
	WithScopes           = di.WithScopes
)

// Filters and injectees
var (
	ContractFilter = shared.ContractFilter
	NameFilter     = shared.NameFilter
	FieldInjectee  = shared.FieldInjectee
	ParamInjectee  = shared.ParamInjectee
)

// Class registries
var (
	NewClassRegistry = loader.NewRegistry
	ContextClasses   = loader.Default
	RegisterClasses  = loader.Register
)

// Bind stages and commits descriptors in one transaction.
func Bind(l *Locator, descriptors ...*Descriptor) ([]*ActiveDescriptor, error) {
	return di.Bind(l, descriptors...)
}

// Resolve returns the service advertising the contract named after T.
func Resolve[T any](l *Locator) (T, error) {
	return di.Resolve[T](l)
}

// ResolveContract returns the service of contract, typed as T.
func ResolveContract[T any](l *Locator, contract string) (T, error) {
	return di.ResolveContract[T](l, contract)
}

// Must resolves or panics - use only during startup
func Must[T any](l *Locator) T {
	return di.Must[T](l)
}

// BindConstant publishes value under the contract named after T.
func BindConstant[T any](l *Locator, value T, contracts ...string) (*ActiveDescriptor, error) {
	return di.BindConstant(l, value, contracts...)
}

// TypeName returns the contract name of T.
func TypeName[T any]() string {
	return shared.TypeName[T]()
}

// TypeOf returns the reflect.Type recorded in a Class for instances of T.
func TypeOf[T any]() reflect.Type {
	return shared.TypeOf[T]()
}
