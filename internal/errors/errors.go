package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeIllegalState          = "ILLEGAL_STATE"
	CodeInvalidConfig         = "INVALID_CONFIG"
	CodeStructural            = "STRUCTURAL_VALIDATION"
	CodeUnsatisfiedDependency = "UNSATISFIED_DEPENDENCY"
	CodeServiceNotFound       = "SERVICE_NOT_FOUND"
	CodeInvocationFailed      = "INVOCATION_FAILED"
	CodeClassNotFound         = "CLASS_NOT_FOUND"
	CodeCircularDependency    = "CIRCULAR_DEPENDENCY"
)

// =============================================================================
// KINDS
// =============================================================================

// Kind classifies a failure so callers can filter the causes of a MultiError.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrecondition
	KindStructural
	KindUnsatisfied
	KindInvocation
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindStructural:
		return "structural"
	case KindUnsatisfied:
		return "unsatisfied"
	case KindInvocation:
		return "invocation"
	case KindLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Kinded is implemented by every error type of this package.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if k, ok := err.(Kinded); ok {
		return k.Kind()
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// =============================================================================
// LOCATOR ERROR (STRUCTURED ERROR)
// =============================================================================

// LocatorError represents a structured error with context
type LocatorError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]any
}

func (e *LocatorError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *LocatorError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for LocatorError.
// Compares by error code, allowing matching against sentinel errors
func (e *LocatorError) Is(target error) bool {
	t, ok := target.(*LocatorError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// Kind maps the error code onto a failure kind.
func (e *LocatorError) Kind() Kind {
	switch e.Code {
	case CodeInvalidArgument, CodeIllegalState, CodeInvalidConfig:
		return KindPrecondition
	case CodeStructural, CodeCircularDependency:
		return KindStructural
	case CodeUnsatisfiedDependency, CodeServiceNotFound:
		return KindUnsatisfied
	case CodeInvocationFailed:
		return KindInvocation
	case CodeClassNotFound:
		return KindLoad
	default:
		return KindUnknown
	}
}

// WithContext adds context to the error
func (e *LocatorError) WithContext(key string, value any) *LocatorError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newError(code, message string, cause error, ctx map[string]any) *LocatorError {
	if ctx == nil {
		ctx = make(map[string]any)
	}
	return &LocatorError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// =============================================================================
// PRECONDITION ERRORS
// =============================================================================

// ErrInvalidArgument reports a nil or otherwise unusable argument passed to an
// entry point. It is raised before any resolution work begins.
func ErrInvalidArgument(operation, argument string) *LocatorError {
	return newError(CodeInvalidArgument,
		fmt.Sprintf("%s: argument %s may not be nil", operation, argument), nil,
		map[string]any{"operation": operation, "argument": argument})
}

// ErrIllegalState reports an operation invoked in the wrong state.
func ErrIllegalState(operation, reason string) *LocatorError {
	return newError(CodeIllegalState, operation+": "+reason, nil,
		map[string]any{"operation": operation})
}

// ErrInvalidConfig reports an invalid configuration value.
func ErrInvalidConfig(configKey string, cause error) *LocatorError {
	return newError(CodeInvalidConfig, "invalid configuration for key '"+configKey+"'", cause,
		map[string]any{"config_key": configKey})
}

// ErrServiceNotFound reports that no descriptor advertises contract.
func ErrServiceNotFound(contract string) *LocatorError {
	return newError(CodeServiceNotFound, "service '"+contract+"' not found", nil,
		map[string]any{"contract": contract})
}

// =============================================================================
// STRUCTURAL ERRORS
// =============================================================================

func structural(message string, ctx map[string]any) *LocatorError {
	return newError(CodeStructural, message, nil, ctx)
}

// ErrIneligibleField reports a field that cannot be injected.
func ErrIneligibleField(class, field string) *LocatorError {
	return structural(
		fmt.Sprintf("The field %s in class %s may not be static, final or have an Annotation type", field, class),
		map[string]any{"class": class, "field": field})
}

// ErrIneligibleMethod reports an initializer method that cannot be invoked.
func ErrIneligibleMethod(class, method string) *LocatorError {
	return structural(
		fmt.Sprintf("The initializer method %s in class %s may not be static or have a parameter with an Annotation type", method, class),
		map[string]any{"class": class, "method": method})
}

// ErrHookArguments reports a lifecycle hook declared with parameters. marker
// is PostConstruct or PreDestroy.
func ErrHookArguments(class, hook, marker string) *LocatorError {
	return structural(
		fmt.Sprintf("The method %s in class %s annotated with @%s must not have any arguments", hook, class, marker),
		map[string]any{"class": class, "method": hook, "marker": marker})
}

// ErrNoConstructor reports a class that cannot be instantiated.
func ErrNoConstructor(class string) *LocatorError {
	return structural(
		fmt.Sprintf("The class %s has no constructor marked for injection and no zero argument constructor", class),
		map[string]any{"class": class})
}

// ErrInvalidResolver reports a malformed custom resolver binding.
func ErrInvalidResolver(implementation string) *LocatorError {
	return structural(
		"An implementation of InjectionResolver must be a parameterized type and the actual type must be an annotation: "+implementation,
		map[string]any{"implementation": implementation})
}

// ErrNotInjectionResolver reports a resolver service whose instance does not
// implement the resolver capability.
func ErrNotInjectionResolver(implementation string, got any) *LocatorError {
	return structural(
		fmt.Sprintf("The service %s bound as an InjectionResolver is a %T", implementation, got),
		map[string]any{"implementation": implementation})
}

// ErrInvalidInjectee reports an injectee that cannot possibly be supported.
func ErrInvalidInjectee(requiredType, reason string) *LocatorError {
	return structural(
		fmt.Sprintf("Invalid injectee with required type of %s passed to getInjecteeDescriptor (%s)", requiredType, reason),
		map[string]any{"required_type": requiredType})
}

// ErrMalformedImplementation reports an implementation identity that is not
// syntactically well formed.
func ErrMalformedImplementation(implementation string) *LocatorError {
	return structural(
		fmt.Sprintf("The implementation name %q is not well formed", implementation),
		map[string]any{"implementation": implementation})
}

// ErrUnknownScope reports a descriptor bound into a scope nobody handles.
func ErrUnknownScope(scope, implementation string) *LocatorError {
	return structural(
		fmt.Sprintf("The scope %s of %s is not known to this locator", scope, implementation),
		map[string]any{"scope": scope, "implementation": implementation})
}

// ErrCircularDependency reports a service that depends on itself, directly or
// through others. services is the resolution chain ending in the repeated
// service.
func ErrCircularDependency(services []string) *LocatorError {
	return newError(CodeCircularDependency,
		"circular dependency detected: "+strings.Join(services, " -> "), nil,
		map[string]any{"services": services})
}

// ErrNoClass reports an instance whose class facts were never registered.
func ErrNoClass(instance any) *LocatorError {
	return structural(
		fmt.Sprintf("No class is registered for instances of type %T", instance),
		map[string]any{"type": fmt.Sprintf("%T", instance)})
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons
var (
	ErrInvalidArgumentSentinel       = &LocatorError{Code: CodeInvalidArgument}
	ErrIllegalStateSentinel          = &LocatorError{Code: CodeIllegalState}
	ErrInvalidConfigSentinel         = &LocatorError{Code: CodeInvalidConfig}
	ErrStructuralSentinel            = &LocatorError{Code: CodeStructural}
	ErrServiceNotFoundSentinel       = &LocatorError{Code: CodeServiceNotFound}
	ErrInvocationFailedSentinel      = &LocatorError{Code: CodeInvocationFailed}
	ErrClassNotFoundSentinel         = &LocatorError{Code: CodeClassNotFound}
	ErrUnsatisfiedDependencySentinel = &LocatorError{Code: CodeUnsatisfiedDependency}
	ErrCircularDependencySentinel    = &LocatorError{Code: CodeCircularDependency}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsPrecondition checks if err is a precondition violation. A MultiError is
// never a precondition violation.
func IsPrecondition(err error) bool {
	if _, ok := err.(*MultiError); ok {
		return false
	}
	return KindOf(err) == KindPrecondition
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, ErrInvalidArgumentSentinel)
}

// IsServiceNotFound checks if the error is a service not found error
func IsServiceNotFound(err error) bool {
	return Is(err, ErrServiceNotFoundSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error
func IsCircularDependency(err error) bool {
	return Is(err, ErrCircularDependencySentinel)
}

// IsInvalidConfig checks if the error is a config error
func IsInvalidConfig(err error) bool {
	return Is(err, ErrInvalidConfigSentinel)
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
