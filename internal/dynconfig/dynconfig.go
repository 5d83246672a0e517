// Package dynconfig stages descriptors and publishes them in one atomic
// commit.
package dynconfig

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/loader"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/metrics"
	"github.com/xraph/locator/internal/registry"
	"github.com/xraph/locator/internal/shared"
)

// Options carries the collaborators of a Configuration. Zero values are
// replaced by noop implementations.
type Options struct {
	Loader  loader.Loader
	Scopes  []string
	Logger  logger.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
}

// Configuration is a single-use transaction against a registry.
type Configuration struct {
	registry *registry.Registry
	loader   loader.Loader
	scopes   []string
	log      logger.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	mu        sync.Mutex
	staged    []*shared.ActiveDescriptor
	committed bool
}

// New opens a transaction against reg.
func New(reg *registry.Registry, opts Options) *Configuration {
	c := &Configuration{
		registry: reg,
		loader:   opts.Loader,
		scopes:   opts.Scopes,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
	}
	if c.loader == nil {
		c.loader = loader.Default()
	}
	if len(c.scopes) == 0 {
		c.scopes = []string{shared.ScopePerLookup, shared.ScopeSingleton}
	}
	if c.log == nil {
		c.log = logger.NewNoop()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/xraph/locator/dynconfig")
	}
	return c
}

// Bind stages d and returns the descriptor it will be published as. Nothing
// is validated until Commit.
func (c *Configuration) Bind(d *shared.Descriptor) (*shared.ActiveDescriptor, error) {
	if d == nil {
		return nil, errors.ErrInvalidArgument("Bind", "descriptor")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return nil, errors.ErrIllegalState("Bind", "configuration has already been committed")
	}

	active := shared.NewActiveDescriptor(d, c.registry.NextServiceID(), c.registry.LocatorID())
	c.staged = append(c.staged, active)
	return active, nil
}

// Staged returns the descriptors bound so far.
func (c *Configuration) Staged() []*shared.ActiveDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.staged)
}

// Commit validates every staged descriptor and publishes them together. If
// any descriptor is invalid nothing is published and every failure found is
// returned in a *errors.MultiError.
func (c *Configuration) Commit() error {
	return c.CommitContext(context.Background())
}

// CommitContext is Commit with a parent context for tracing.
func (c *Configuration) CommitContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return errors.ErrIllegalState("Commit", "configuration has already been committed")
	}
	c.committed = true

	_, span := c.tracer.Start(ctx, "locator.commit", trace.WithAttributes(
		attribute.Int("locator.staged", len(c.staged)),
		attribute.Int64("locator.id", c.registry.LocatorID()),
	))
	defer span.End()

	collector := errors.NewCollector()
	bindings := make([]registry.Binding, 0, len(c.staged))
	for _, d := range c.staged {
		marker, err := c.validate(d)
		if err != nil {
			collector.Add(err)
			continue
		}
		bindings = append(bindings, registry.Binding{Descriptor: d, ResolverMarker: marker})
	}

	if err := collector.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit aborted")
		c.metrics.ObserveCommit(err, len(c.staged), c.registry.Size())
		c.log.Warn("configuration commit aborted",
			logger.Int("staged", len(c.staged)),
			logger.Int("failures", collector.Len()),
			logger.Error(err),
		)
		return err
	}

	size := c.registry.BindAll(bindings)
	span.SetAttributes(attribute.Int("locator.size", size))
	c.metrics.ObserveCommit(nil, len(bindings), size)
	c.log.Debug("configuration committed",
		logger.Int("bound", len(bindings)),
		logger.Int("size", size),
	)
	return nil
}

// validate checks one descriptor. For custom resolver bindings it returns the
// marker the resolver serves.
func (c *Configuration) validate(d *shared.ActiveDescriptor) (string, error) {
	collector := errors.NewCollector()

	if !shared.ValidImplementationName(d.Implementation()) {
		collector.Add(errors.ErrMalformedImplementation(d.Implementation()))
	}
	if !slices.Contains(c.scopes, d.Scope()) {
		collector.Add(errors.ErrUnknownScope(d.Scope(), d.Implementation()))
	}

	var marker string
	if d.Advertises(shared.InjectionResolverContract) && collector.Empty() {
		m, err := c.resolverMarker(d)
		collector.Add(err)
		marker = m
	}
	return marker, collector.Err()
}

// resolverMarker loads the class of a custom resolver binding and extracts the
// marker from its type argument.
func (c *Configuration) resolverMarker(d *shared.ActiveDescriptor) (string, error) {
	class, err := c.loader.Load(d.Implementation())
	if err != nil {
		return "", err
	}

	arg := class.ResolverTypeArg
	if arg == nil || arg.Kind != shared.TypeArgConcrete || !arg.Marker || arg.Name == "" {
		return "", errors.ErrInvalidResolver(d.Implementation())
	}
	return arg.Name, nil
}
