package locator_test

import (
	"errors"

	"github.com/xraph/locator"
)

// expected is the message every throwing fixture fails with.
const expected = "Expected"

// noClass names an implementation no loader knows.
const noClass = "this.class.is.not.Here"

var errExpected = errors.New(expected)

func zeroArg[T any]() *locator.Constructor {
	return &locator.Constructor{New: func([]any) (any, error) { return new(T), nil }}
}

// ThrowyC fails in its constructor.
type ThrowyC struct{}

// ThrowyF declares a final field marked for injection.
type ThrowyF struct {
	aFinalField string
}

// ThrowyPC fails in both lifecycle hooks.
type ThrowyPC struct{}

// ThrowyM fails in its initializer method.
type ThrowyM struct{}

// BadPC declares a post-construct hook that takes an argument.
type BadPC struct{}

// BadPD declares a pre-destroy hook that takes an argument.
type BadPD struct{}

// NotAService has class facts but is never bound.
type NotAService struct{}

// InjectsAClassThatIsNotAService asks for a NotAService.
type InjectsAClassThatIsNotAService struct {
	notAService *NotAService
}

// The three malformed custom resolvers.
type (
	RawInjectionResolver           struct{}
	TypeVariableInjectionResolver  struct{}
	NotAnnotationInjectionResolver struct{}
)

func fixtureClasses() []*locator.Class {
	return []*locator.Class{
		{
			Name: locator.TypeName[ThrowyC](),
			Constructor: &locator.Constructor{New: func([]any) (any, error) {
				return nil, errExpected
			}},
		},
		{
			Name:        locator.TypeName[ThrowyF](),
			Type:        locator.TypeOf[ThrowyF](),
			Constructor: zeroArg[ThrowyF](),
			Fields: []*locator.Field{{
				Name:           "aFinalField",
				Final:          true,
				InjectionPoint: locator.InjectionPoint{Type: "string"},
				Set: func(i, v any) error {
					i.(*ThrowyF).aFinalField = v.(string)
					return nil
				},
			}},
		},
		{
			Name:          locator.TypeName[ThrowyPC](),
			Type:          locator.TypeOf[ThrowyPC](),
			Constructor:   zeroArg[ThrowyPC](),
			PostConstruct: &locator.Hook{Name: "postConstruct", Invoke: func(any) error { return errExpected }},
			PreDestroy:    &locator.Hook{Name: "preDestroy", Invoke: func(any) error { return errExpected }},
		},
		{
			Name:        locator.TypeName[ThrowyM](),
			Type:        locator.TypeOf[ThrowyM](),
			Constructor: zeroArg[ThrowyM](),
			Methods: []*locator.Method{{
				Name:   "initMe",
				Invoke: func(any, []any) error { return errExpected },
			}},
		},
		{
			Name:          locator.TypeName[BadPC](),
			Type:          locator.TypeOf[BadPC](),
			Constructor:   zeroArg[BadPC](),
			PostConstruct: &locator.Hook{Name: "postConstruct", Params: []string{"string"}},
		},
		{
			Name:        locator.TypeName[BadPD](),
			Type:        locator.TypeOf[BadPD](),
			Constructor: zeroArg[BadPD](),
			PreDestroy:  &locator.Hook{Name: "preDestroy", Params: []string{"string"}},
		},
		{
			Name:        locator.TypeName[NotAService](),
			Type:        locator.TypeOf[NotAService](),
			Constructor: zeroArg[NotAService](),
		},
		{
			Name:        locator.TypeName[InjectsAClassThatIsNotAService](),
			Type:        locator.TypeOf[InjectsAClassThatIsNotAService](),
			Constructor: zeroArg[InjectsAClassThatIsNotAService](),
			Fields: []*locator.Field{{
				Name:           "notAService",
				InjectionPoint: locator.InjectionPoint{Type: locator.TypeName[NotAService]()},
				Set: func(i, v any) error {
					i.(*InjectsAClassThatIsNotAService).notAService = v.(*NotAService)
					return nil
				},
			}},
		},
		{
			Name:        locator.TypeName[RawInjectionResolver](),
			Constructor: zeroArg[RawInjectionResolver](),
		},
		{
			Name:            locator.TypeName[TypeVariableInjectionResolver](),
			Constructor:     zeroArg[TypeVariableInjectionResolver](),
			ResolverTypeArg: &locator.TypeArg{Kind: locator.TypeArgVariable, Name: "T"},
		},
		{
			Name:            locator.TypeName[NotAnnotationInjectionResolver](),
			Constructor:     zeroArg[NotAnnotationInjectionResolver](),
			ResolverTypeArg: &locator.TypeArg{Kind: locator.TypeArgConcrete, Name: "string"},
		},
	}
}
