package di

import (
	"context"
	"slices"
	"sync"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/lifecycle"
	"github.com/xraph/locator/internal/shared"
)

// cachingScope keeps one instance per descriptor for the lifetime of the
// locator. Failures are not cached.
//
// Creation runs under a single scope-wide lock. A creation that needs another
// cached service while holding it carries the lock in its context and does
// not take it again, so dependency chains never wait on themselves.
type cachingScope struct {
	mu      sync.Mutex
	entries map[int64]*lifecycle.Instance
	order   []*lifecycle.Instance

	creating sync.Mutex
}

type creatingKey struct{}

func newCachingScope() *cachingScope {
	return &cachingScope{entries: make(map[int64]*lifecycle.Instance)}
}

func (s *cachingScope) lookup(d *shared.ActiveDescriptor) *lifecycle.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[d.ServiceID()]
}

// get returns the cached instance of d, creating it on first use. The caller
// must have ruled out d already being under creation in ctx.
func (s *cachingScope) get(ctx context.Context, d *shared.ActiveDescriptor, create func(context.Context) (*lifecycle.Instance, error)) (any, error) {
	if inst := s.lookup(d); inst != nil {
		return inst.Value, nil
	}

	if ctx.Value(creatingKey{}) != s {
		s.creating.Lock()
		defer s.creating.Unlock()
		ctx = context.WithValue(ctx, creatingKey{}, s)

		if inst := s.lookup(d); inst != nil {
			return inst.Value, nil
		}
	}

	inst, err := create(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[d.ServiceID()] = inst
	s.order = append(s.order, inst)
	s.mu.Unlock()
	return inst.Value, nil
}

// active reports whether d has a cached instance.
func (s *cachingScope) active(d *shared.ActiveDescriptor) bool {
	return s.lookup(d) != nil
}

func (s *cachingScope) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// destroy tears every cached instance down in reverse creation order.
func (s *cachingScope) destroy(o *lifecycle.Orchestrator) error {
	s.mu.Lock()
	order := slices.Clone(s.order)
	s.order = nil
	s.entries = make(map[int64]*lifecycle.Instance)
	s.mu.Unlock()

	collector := errors.NewCollector()
	for i := len(order) - 1; i >= 0; i-- {
		collector.Add(o.Destroy(order[i]))
	}
	return collector.Err()
}

type inFlightKey struct{}

// inFlight returns the resolution chain closed by d when d is already being
// obtained in ctx, or nil.
func inFlight(ctx context.Context, d *shared.ActiveDescriptor) []string {
	chain, _ := ctx.Value(inFlightKey{}).([]*shared.ActiveDescriptor)
	start := slices.Index(chain, d)
	if start < 0 {
		return nil
	}
	cycle := make([]string, 0, len(chain)-start+1)
	for _, c := range chain[start:] {
		cycle = append(cycle, c.Implementation())
	}
	return append(cycle, d.Implementation())
}

func withInFlight(ctx context.Context, d *shared.ActiveDescriptor) context.Context {
	chain, _ := ctx.Value(inFlightKey{}).([]*shared.ActiveDescriptor)
	return context.WithValue(ctx, inFlightKey{}, append(slices.Clip(chain), d))
}
