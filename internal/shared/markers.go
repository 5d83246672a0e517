package shared

import (
	"reflect"
	"regexp"
)

// Well-known marker types. A marker is the declarative tag a binding or an
// injection point carries (the analog of an annotation type).
const (
	// InjectMarker marks a standard injection point.
	InjectMarker = "Inject"
	// PostConstructMarker marks the post-construction hook.
	PostConstructMarker = "PostConstruct"
	// PreDestroyMarker marks the pre-destruction hook.
	PreDestroyMarker = "PreDestroy"
)

// Contracts the locator itself understands.
const (
	InjectionResolverContract           = "InjectionResolver"
	ServiceLocatorContract              = "ServiceLocator"
	DynamicConfigurationServiceContract = "DynamicConfigurationService"
)

// Built-in scopes.
const (
	ScopePerLookup = "PerLookup"
	ScopeSingleton = "Singleton"
)

// FieldPosition is the position of every injectee whose parent is a field.
const FieldPosition = -1

var implementationPattern = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$-]*(?:[./][\p{L}\p{N}_$-]+)*$`)

// ValidImplementationName reports whether name is a syntactically well-formed
// implementation identity. It says nothing about whether the implementation can
// be loaded.
func ValidImplementationName(name string) bool {
	return implementationPattern.MatchString(name)
}

// TypeName returns the package qualified name of T, suitable as a contract or
// implementation identity. Pointer types are named after their element.
//
//	shared.TypeName[*UserService]() // "github.com/acme/app.UserService"
func TypeName[T any]() string {
	return NameOf(reflect.TypeOf((*T)(nil)).Elem())
}

// NameOf returns the package qualified name of t.
func NameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypeOf returns the reflect.Type of T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
