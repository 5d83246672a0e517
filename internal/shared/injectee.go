package shared

import (
	"fmt"
	"strings"
)

// Injectee is one injection point as seen during the resolution of a single
// target instance. Injectees are transient and never persisted.
type Injectee struct {
	RequiredType       string
	RequiredQualifiers []string
	Name               string

	// Position is the parameter ordinal, or FieldPosition for fields.
	Position      int
	InjecteeClass string
	Parent        Member

	Optional    bool
	Self        bool
	Unqualified *Unqualified

	// Marker is the injection marker that selects a custom resolver.
	Marker string

	// InjecteeDescriptor is the descriptor of the instance being injected,
	// when known. Self injectees resolve to it.
	InjecteeDescriptor *ActiveDescriptor
}

// FieldInjectee builds the injectee of a field of class.
func FieldInjectee(class string, f *Field, self *ActiveDescriptor) *Injectee {
	return newInjectee(class, f.InjectionPoint, FieldPosition, f, self)
}

// ParamInjectee builds the injectee of the parameter at position.
func ParamInjectee(class string, position int, p *Param, self *ActiveDescriptor) *Injectee {
	return newInjectee(class, p.InjectionPoint, position, p, self)
}

func newInjectee(class string, ip InjectionPoint, position int, parent Member, self *ActiveDescriptor) *Injectee {
	qualifiers := make([]string, len(ip.Qualifiers))
	copy(qualifiers, ip.Qualifiers)

	return &Injectee{
		RequiredType:       ip.Type,
		RequiredQualifiers: qualifiers,
		Name:               ip.Named,
		Position:           position,
		InjecteeClass:      class,
		Parent:             parent,
		Optional:           ip.Optional,
		Self:               ip.Self,
		Unqualified:        ip.Unqualified,
		Marker:             ip.MarkerOrDefault(),
		InjecteeDescriptor: self,
	}
}

// Filter returns the lookup filter equivalent to the injectee.
func (i *Injectee) Filter() Filter {
	return Filter{
		Contract:    i.RequiredType,
		Name:        i.Name,
		Qualifiers:  i.RequiredQualifiers,
		Unqualified: i.Unqualified,
	}
}

// Malformed returns why the injectee cannot be supported, or "" when it is
// structurally sound.
func (i *Injectee) Malformed() string {
	if i.RequiredType == "" {
		return "no required type"
	}
	if i.Parent == nil {
		return "no parent"
	}
	_, isField := i.Parent.(*Field)
	if isField != (i.Position == FieldPosition) {
		return fmt.Sprintf("position %d does not match its parent", i.Position)
	}
	if !isField && i.Position < 0 {
		return fmt.Sprintf("invalid position %d", i.Position)
	}
	if i.Self && i.InjecteeDescriptor == nil {
		return "self injection without a descriptor"
	}
	return ""
}

func (i *Injectee) String() string {
	parent := "<none>"
	if i.Parent != nil {
		parent = i.Parent.MemberName()
	}
	return fmt.Sprintf("Injectee(requiredType=%s,parent=%s,qualifiers={%s},position=%d,optional=%t,self=%t,unqualified=%v)",
		i.RequiredType, parent, strings.Join(i.RequiredQualifiers, ","), i.Position, i.Optional, i.Self, i.Unqualified != nil)
}
