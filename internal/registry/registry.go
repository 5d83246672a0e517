// Package registry holds the published descriptors of a locator.
//
// Readers work on immutable snapshots and never lock. Writers build a new
// snapshot from the current one and swap it in atomically, so a batch of
// bindings becomes visible all at once or not at all.
package registry

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/shared"
)

// Binding is a validated descriptor ready to be published. ResolverMarker is
// set for custom injection resolvers and names the marker they serve.
type Binding struct {
	Descriptor     *shared.ActiveDescriptor
	ResolverMarker string
}

type snapshot struct {
	version     uint64
	descriptors []*shared.ActiveDescriptor
	byContract  map[string][]*shared.ActiveDescriptor
	resolvers   map[string][]*shared.ActiveDescriptor
}

var empty = &snapshot{
	byContract: map[string][]*shared.ActiveDescriptor{},
	resolvers:  map[string][]*shared.ActiveDescriptor{},
}

// Registry is the binding registry of one locator.
type Registry struct {
	locatorID int64

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	nextID  atomic.Int64
}

// New creates an empty registry owned by locatorID.
func New(locatorID int64) *Registry {
	r := &Registry{locatorID: locatorID}
	r.current.Store(empty)
	return r
}

// LocatorID returns the id of the owning locator.
func (r *Registry) LocatorID() int64 { return r.locatorID }

// NextServiceID reserves a service id.
func (r *Registry) NextServiceID() int64 { return r.nextID.Add(1) - 1 }

// Version is incremented by every successful BindAll.
func (r *Registry) Version() uint64 { return r.current.Load().version }

// Size returns the number of published descriptors.
func (r *Registry) Size() int { return len(r.current.Load().descriptors) }

// BindAll publishes bindings atomically and returns the new size.
func (r *Registry) BindAll(bindings []Binding) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.current.Load()
	next := &snapshot{
		version:     old.version + 1,
		descriptors: slices.Clone(old.descriptors),
		byContract:  make(map[string][]*shared.ActiveDescriptor, len(old.byContract)),
		resolvers:   make(map[string][]*shared.ActiveDescriptor, len(old.resolvers)),
	}
	for k, v := range old.byContract {
		next.byContract[k] = v
	}
	for k, v := range old.resolvers {
		next.resolvers[k] = v
	}

	touched := map[string]bool{}
	markers := map[string]bool{}
	for _, b := range bindings {
		d := b.Descriptor
		if d == nil {
			continue
		}
		next.descriptors = append(next.descriptors, d)
		for _, c := range d.Contracts() {
			if !touched[c] {
				next.byContract[c] = slices.Clone(next.byContract[c])
				touched[c] = true
			}
			next.byContract[c] = append(next.byContract[c], d)
		}
		if b.ResolverMarker != "" {
			if !markers[b.ResolverMarker] {
				next.resolvers[b.ResolverMarker] = slices.Clone(next.resolvers[b.ResolverMarker])
				markers[b.ResolverMarker] = true
			}
			next.resolvers[b.ResolverMarker] = append(next.resolvers[b.ResolverMarker], d)
		}
	}

	slices.SortStableFunc(next.descriptors, compare)
	for c := range touched {
		slices.SortStableFunc(next.byContract[c], compare)
	}
	for m := range markers {
		slices.SortStableFunc(next.resolvers[m], compare)
	}

	r.current.Store(next)
	return len(next.descriptors)
}

// compare orders by rank descending, then locator id and service id
// ascending.
func compare(a, b *shared.ActiveDescriptor) int {
	if c := cmp.Compare(b.Rank(), a.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LocatorID(), b.LocatorID()); c != 0 {
		return c
	}
	return cmp.Compare(a.ServiceID(), b.ServiceID())
}

func (s *snapshot) candidates(f shared.Filter) []*shared.ActiveDescriptor {
	if f.Contract == "" {
		return s.descriptors
	}
	return s.byContract[f.Contract]
}

// FindBestDescriptor returns the best match for f, or nil.
func (r *Registry) FindBestDescriptor(f shared.Filter) *shared.ActiveDescriptor {
	for _, d := range r.current.Load().candidates(f) {
		if f.Matches(d) {
			return d
		}
	}
	return nil
}

// FindDescriptors returns every match for f, best first.
func (r *Registry) FindDescriptors(f shared.Filter) []*shared.ActiveDescriptor {
	var out []*shared.ActiveDescriptor
	for _, d := range r.current.Load().candidates(f) {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// FindInjecteeDescriptor maps an injectee to the descriptor that would satisfy
// it. A nil descriptor with a nil error means nothing matched.
func (r *Registry) FindInjecteeDescriptor(injectee *shared.Injectee) (*shared.ActiveDescriptor, error) {
	if injectee == nil {
		return nil, errors.ErrInvalidArgument("FindInjecteeDescriptor", "injectee")
	}
	if reason := injectee.Malformed(); reason != "" {
		return nil, errors.ErrInvalidInjectee(injectee.RequiredType, reason)
	}
	if injectee.Self {
		return injectee.InjecteeDescriptor, nil
	}
	return r.FindBestDescriptor(injectee.Filter()), nil
}

// Resolver returns the best custom resolver registered for marker, or nil.
func (r *Registry) Resolver(marker string) *shared.ActiveDescriptor {
	if found := r.current.Load().resolvers[marker]; len(found) > 0 {
		return found[0]
	}
	return nil
}

// Markers returns the markers served by custom resolvers.
func (r *Registry) Markers() []string {
	s := r.current.Load()
	out := make([]string, 0, len(s.resolvers))
	for m := range s.resolvers {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}
