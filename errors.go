package locator

import (
	"github.com/xraph/locator/internal/errors"
)

// Error types
type (
	LocatorError               = errors.LocatorError
	MultiError                 = errors.MultiError
	UnsatisfiedDependencyError = errors.UnsatisfiedDependencyError
	ClassNotFoundError         = errors.ClassNotFoundError
	InvocationError            = errors.InvocationError
	PanicError                 = errors.PanicError
	ErrorKind                  = errors.Kind
)

// Failure kinds
const (
	KindUnknown      = errors.KindUnknown
	KindPrecondition = errors.KindPrecondition
	KindStructural   = errors.KindStructural
	KindUnsatisfied  = errors.KindUnsatisfied
	KindInvocation   = errors.KindInvocation
	KindLoad         = errors.KindLoad
)

// Re-export sentinel errors for error comparison using errors.Is().
var (
	ErrInvalidArgumentSentinel       = errors.ErrInvalidArgumentSentinel
	ErrIllegalStateSentinel          = errors.ErrIllegalStateSentinel
	ErrInvalidConfigSentinel         = errors.ErrInvalidConfigSentinel
	ErrStructuralSentinel            = errors.ErrStructuralSentinel
	ErrServiceNotFoundSentinel       = errors.ErrServiceNotFoundSentinel
	ErrInvocationFailedSentinel      = errors.ErrInvocationFailedSentinel
	ErrClassNotFoundSentinel         = errors.ErrClassNotFoundSentinel
	ErrUnsatisfiedDependencySentinel = errors.ErrUnsatisfiedDependencySentinel
	ErrCircularDependencySentinel    = errors.ErrCircularDependencySentinel
)

// Helpers
var (
	KindOf            = errors.KindOf
	AsMultiError      = errors.AsMultiError
	IsPrecondition    = errors.IsPrecondition
	IsInvalidArgument = errors.IsInvalidArgument
	IsServiceNotFound = errors.IsServiceNotFound

	IsCircularDependency = errors.IsCircularDependency
)
