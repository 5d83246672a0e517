package shared

import "slices"

// Filter selects descriptors by contract, name and qualifiers.
type Filter struct {
	Contract    string
	Name        string
	Qualifiers  []string
	Unqualified *Unqualified
}

// ContractFilter matches every descriptor advertising contract.
func ContractFilter(contract string) Filter {
	return Filter{Contract: contract}
}

// NameFilter matches descriptors advertising contract under name.
func NameFilter(contract, name string) Filter {
	return Filter{Contract: contract, Name: name}
}

// Matches reports whether d satisfies the filter.
func (f Filter) Matches(d *ActiveDescriptor) bool {
	if f.Contract != "" && !d.Advertises(f.Contract) {
		return false
	}
	if f.Name != "" && f.Name != d.Name() {
		return false
	}
	if !d.HasQualifiers(f.Qualifiers) {
		return false
	}
	if f.Unqualified != nil {
		if len(f.Unqualified.Qualifiers) == 0 {
			return len(d.qualifiers) == 0
		}
		for _, q := range f.Unqualified.Qualifiers {
			if slices.Contains(d.qualifiers, q) {
				return false
			}
		}
	}
	return true
}
