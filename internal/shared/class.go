package shared

import "reflect"

// Class holds the structural facts of one implementation. It is produced by
// whatever authors bindings and registered with a loader; the locator never
// inspects live type metadata beyond mapping an instance back to its Class
// through Type.
type Class struct {
	Name string
	Type reflect.Type

	Constructor   *Constructor
	Fields        []*Field
	Methods       []*Method
	PostConstruct *Hook
	PreDestroy    *Hook

	// ResolverTypeArg describes the type argument of InjectionResolver[T] for
	// classes implementing a custom resolver. Nil means the implementation is
	// not parameterized at all.
	ResolverTypeArg *TypeArg
}

// InjectionPoint describes what one dependency site asks for.
type InjectionPoint struct {
	Type        string
	Named       string
	Qualifiers  []string
	Marker      string
	Optional    bool
	Self        bool
	Unqualified *Unqualified
}

// MarkerOrDefault returns the injection marker, defaulting to InjectMarker.
func (p InjectionPoint) MarkerOrDefault() string {
	if p.Marker == "" {
		return InjectMarker
	}
	return p.Marker
}

// Unqualified restricts candidates to those without the listed qualifiers, or
// without any qualifier when the list is empty.
type Unqualified struct {
	Qualifiers []string
}

// Member is the structural parent of an injectee: a *Field or a *Param.
type Member interface {
	MemberName() string
	member()
}

// Constructor creates an instance from its resolved parameters.
type Constructor struct {
	Params []*Param
	New    func(args []any) (any, error)
}

// Param is one constructor or method parameter.
type Param struct {
	InjectionPoint

	// Owner names the constructor or method declaring the parameter.
	Owner string
	// MarkerTyped is set when the parameter type is itself a marker type.
	MarkerTyped bool
}

func (p *Param) MemberName() string { return p.Owner }
func (*Param) member()              {}

// Field is an injectable field.
type Field struct {
	InjectionPoint

	Name        string
	Static      bool
	Final       bool
	MarkerTyped bool
	Set         func(instance, value any) error
}

func (f *Field) MemberName() string { return f.Name }
func (*Field) member()              {}

// Method is an initializer method called after fields are injected.
type Method struct {
	Name   string
	Params []*Param
	Static bool
	Invoke func(instance any, args []any) error
}

// Hook is a post-construct or pre-destroy callback. Params lists the declared
// parameter types; a valid hook declares none.
type Hook struct {
	Name   string
	Params []string
	Invoke func(instance any) error
}

// TypeArgKind classifies the type argument of a parameterized implementation.
type TypeArgKind int

const (
	// TypeArgNone means a raw, unparameterized use.
	TypeArgNone TypeArgKind = iota
	// TypeArgVariable means the argument is an open type parameter.
	TypeArgVariable
	// TypeArgConcrete means the argument is a concrete type.
	TypeArgConcrete
)

func (k TypeArgKind) String() string {
	switch k {
	case TypeArgNone:
		return "none"
	case TypeArgVariable:
		return "variable"
	case TypeArgConcrete:
		return "concrete"
	default:
		return "unknown"
	}
}

// TypeArg describes a single type argument.
type TypeArg struct {
	Kind   TypeArgKind
	Name   string
	Marker bool
}

// PostConstructor is implemented by instances that want a post-construct
// callback without declaring a Hook on their Class.
type PostConstructor interface {
	PostConstruct() error
}

// PreDestroyer is the pre-destroy counterpart of PostConstructor.
type PreDestroyer interface {
	PreDestroy() error
}

// InjectionResolver supplies values for injection points carrying the marker
// it is registered for.
type InjectionResolver interface {
	Resolve(injectee *Injectee) (any, error)
}
