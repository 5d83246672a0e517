package shared

import (
	"fmt"
	"slices"
	"strings"
)

// Descriptor is the authoring form of a binding. It is handed to a
// configuration transaction, which turns it into an ActiveDescriptor.
type Descriptor struct {
	// Implementation identifies the implementation (for example a fully
	// qualified type name). It may name something that cannot be loaded.
	Implementation string
	Contracts      []string
	Name           string
	Scope          string
	Qualifiers     []string
	Rank           int
	Metadata       map[string][]string

	// Constant, when set, is returned as the service and no loading or
	// construction takes place.
	Constant any
}

// ActiveDescriptor is a published, immutable binding.
type ActiveDescriptor struct {
	implementation string
	contracts      []string
	name           string
	scope          string
	qualifiers     []string
	rank           int
	metadata       map[string][]string
	constant       any
	serviceID      int64
	locatorID      int64
}

// NewActiveDescriptor freezes d. The implementation is always advertised as a
// contract and an empty scope defaults to ScopePerLookup.
func NewActiveDescriptor(d *Descriptor, serviceID, locatorID int64) *ActiveDescriptor {
	contracts := make([]string, 0, len(d.Contracts)+1)
	if d.Implementation != "" {
		contracts = append(contracts, d.Implementation)
	}
	for _, c := range d.Contracts {
		if c != "" && !slices.Contains(contracts, c) {
			contracts = append(contracts, c)
		}
	}

	scope := d.Scope
	if scope == "" {
		scope = ScopePerLookup
	}

	var metadata map[string][]string
	if len(d.Metadata) > 0 {
		metadata = make(map[string][]string, len(d.Metadata))
		for k, v := range d.Metadata {
			metadata[k] = slices.Clone(v)
		}
	}

	return &ActiveDescriptor{
		implementation: d.Implementation,
		contracts:      contracts,
		name:           d.Name,
		scope:          scope,
		qualifiers:     slices.Clone(d.Qualifiers),
		rank:           d.Rank,
		metadata:       metadata,
		constant:       d.Constant,
		serviceID:      serviceID,
		locatorID:      locatorID,
	}
}

func (d *ActiveDescriptor) Implementation() string { return d.implementation }
func (d *ActiveDescriptor) Name() string           { return d.name }
func (d *ActiveDescriptor) Scope() string          { return d.scope }
func (d *ActiveDescriptor) Rank() int              { return d.rank }
func (d *ActiveDescriptor) ServiceID() int64       { return d.serviceID }
func (d *ActiveDescriptor) LocatorID() int64       { return d.locatorID }

// Contracts returns a copy of the advertised contracts.
func (d *ActiveDescriptor) Contracts() []string { return slices.Clone(d.contracts) }

// Qualifiers returns a copy of the qualifiers.
func (d *ActiveDescriptor) Qualifiers() []string { return slices.Clone(d.qualifiers) }

// Metadata returns the values stored under key.
func (d *ActiveDescriptor) Metadata(key string) []string {
	return slices.Clone(d.metadata[key])
}

// Constant returns the pre-built instance, if any.
func (d *ActiveDescriptor) Constant() (any, bool) {
	return d.constant, d.constant != nil
}

// Advertises reports whether contract is one of the descriptor's contracts.
func (d *ActiveDescriptor) Advertises(contract string) bool {
	return slices.Contains(d.contracts, contract)
}

// HasQualifiers reports whether every qualifier in required is carried by d.
func (d *ActiveDescriptor) HasQualifiers(required []string) bool {
	for _, q := range required {
		if !slices.Contains(d.qualifiers, q) {
			return false
		}
	}
	return true
}

func (d *ActiveDescriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Descriptor(implementation=%s", d.implementation)
	fmt.Fprintf(&b, ",contracts={%s}", strings.Join(d.contracts, ","))
	if d.name != "" {
		fmt.Fprintf(&b, ",name=%s", d.name)
	}
	fmt.Fprintf(&b, ",scope=%s", d.scope)
	if len(d.qualifiers) > 0 {
		fmt.Fprintf(&b, ",qualifiers={%s}", strings.Join(d.qualifiers, ","))
	}
	fmt.Fprintf(&b, ",rank=%d,id=%d.%d)", d.rank, d.locatorID, d.serviceID)
	return b.String()
}
