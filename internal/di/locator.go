package di

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/locator/internal/config"
	"github.com/xraph/locator/internal/dynconfig"
	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/lifecycle"
	"github.com/xraph/locator/internal/loader"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/metrics"
	"github.com/xraph/locator/internal/registry"
	"github.com/xraph/locator/internal/resolver"
	"github.com/xraph/locator/internal/shared"
)

const tracerName = "github.com/xraph/locator"

var locatorIDs atomic.Int64

// Locator is a service locator: it publishes descriptors, resolves injection
// points and drives instances through their lifecycle.
type Locator struct {
	id         int64
	instanceID uuid.UUID
	name       string

	registry  *registry.Registry
	classes   *loader.Registry
	loader    loader.Chain
	resolver  *resolver.Resolver
	lifecycle *lifecycle.Orchestrator
	scopes    []string
	cached    *cachingScope

	log     logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	shutdown atomic.Bool
}

// New creates a locator. The locator binds itself under
// shared.ServiceLocatorContract and its configuration service under
// shared.DynamicConfigurationServiceContract.
func New(opts ...Option) *Locator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	l := &Locator{
		id:         locatorIDs.Add(1) - 1,
		instanceID: uuid.New(),
		name:       o.name,
		classes:    loader.NewRegistry("locator"),
		scopes:     append([]string{shared.ScopePerLookup, shared.ScopeSingleton}, o.scopes...),
		cached:     newCachingScope(),
		metrics:    o.metrics,
	}

	l.log = o.logger
	if l.log == nil {
		l.log = logger.NewNoop()
	}
	l.log = l.log.Named("locator").With(
		logger.String("locator", l.name),
		logger.Int64("locator_id", l.id),
		logger.Stringer("instance_id", l.instanceID),
	)

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	l.tracer = tp.Tracer(o.tracerName)

	l.loader = loader.Chain{l.classes}
	if o.contextLoader {
		l.loader = append(l.loader, loader.Default())
	}
	l.loader = append(l.loader, o.fallback...)

	l.registry = registry.New(l.id)
	l.resolver = resolver.New(l.registry, resolver.ServiceFactoryFunc(l.serviceFor))
	l.lifecycle = lifecycle.New(l.resolver, l.log)

	l.bindSelf()
	return l
}

// NewFromConfig creates a locator from a validated configuration. Options
// are applied after the configuration and win over it.
func NewFromConfig(cfg config.Config, opts ...Option) (*Locator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, errors.ErrInvalidConfig("logging", err)
	}

	base := []Option{
		WithName(cfg.Name),
		WithLogger(log),
		WithScopes(cfg.Scopes...),
	}
	if cfg.Metrics.Enabled {
		base = append(base, WithMetrics(metrics.New(cfg.Metrics.Namespace)))
	}
	if cfg.Tracing.Enabled {
		base = append(base, WithTracerName(cfg.Tracing.Tracer))
	} else {
		base = append(base, WithTracerProvider(noop.NewTracerProvider()))
	}
	if !cfg.ContextLoader {
		base = append(base, WithoutContextLoader())
	}
	return New(append(base, opts...)...), nil
}

func (l *Locator) bindSelf() {
	dc := l.CreateDynamicConfiguration()
	_, _ = dc.Bind(&shared.Descriptor{
		Implementation: shared.TypeName[Locator](),
		Contracts:      []string{shared.ServiceLocatorContract},
		Scope:          shared.ScopeSingleton,
		Constant:       l,
	})
	_, _ = dc.Bind(&shared.Descriptor{
		Implementation: shared.TypeName[ConfigurationService](),
		Contracts:      []string{shared.DynamicConfigurationServiceContract},
		Scope:          shared.ScopeSingleton,
		Constant:       &ConfigurationService{locator: l},
	})
	if err := dc.Commit(); err != nil {
		l.log.Error("failed to bind locator services", logger.Error(err))
	}
}

// ID returns the locator id used to order descriptors across locators.
func (l *Locator) ID() int64 { return l.id }

// InstanceID uniquely identifies this locator instance.
func (l *Locator) InstanceID() uuid.UUID { return l.instanceID }

// Name returns the locator name.
func (l *Locator) Name() string { return l.name }

// Classes returns the locator's own class registry. It is consulted before
// the process-wide registry.
func (l *Locator) Classes() *loader.Registry { return l.classes }

// Metrics returns the locator metrics, or nil when disabled.
func (l *Locator) Metrics() *metrics.Metrics { return l.metrics }

// CreateDynamicConfiguration opens a new configuration transaction.
func (l *Locator) CreateDynamicConfiguration() *dynconfig.Configuration {
	return dynconfig.New(l.registry, dynconfig.Options{
		Loader:  l.loader,
		Scopes:  l.scopes,
		Logger:  l.log,
		Metrics: l.metrics,
		Tracer:  l.tracer,
	})
}

// GetBestDescriptor returns the best descriptor matching filter, or nil.
func (l *Locator) GetBestDescriptor(filter shared.Filter) *shared.ActiveDescriptor {
	return l.registry.FindBestDescriptor(filter)
}

// GetDescriptors returns every descriptor matching filter, best first.
func (l *Locator) GetDescriptors(filter shared.Filter) []*shared.ActiveDescriptor {
	return l.registry.FindDescriptors(filter)
}

// GetInjecteeDescriptor returns the descriptor that would satisfy injectee,
// or nil when none does.
func (l *Locator) GetInjecteeDescriptor(injectee *shared.Injectee) (*shared.ActiveDescriptor, error) {
	if injectee == nil {
		return nil, errors.ErrInvalidArgument("GetInjecteeDescriptor", "injectee")
	}
	d, err := l.registry.FindInjecteeDescriptor(injectee)
	if err != nil {
		return nil, l.fail("GetInjecteeDescriptor", errors.NewMultiError(err))
	}
	return d, nil
}

// GetServiceHandle returns a handle on d. Nothing is loaded or created until
// the handle's GetService is called.
func (l *Locator) GetServiceHandle(d *shared.ActiveDescriptor) (*ServiceHandle, error) {
	if d == nil {
		return nil, errors.ErrInvalidArgument("GetServiceHandle", "descriptor")
	}
	return &ServiceHandle{locator: l, descriptor: d}, nil
}

// GetService returns the service of the best descriptor advertising
// contract.
func (l *Locator) GetService(contract string) (any, error) {
	return l.GetServiceByFilter(shared.ContractFilter(contract))
}

// GetNamedService returns the service of the best descriptor advertising
// contract under name.
func (l *Locator) GetNamedService(contract, name string) (any, error) {
	return l.GetServiceByFilter(shared.NameFilter(contract, name))
}

// GetServiceByFilter returns the service of the best descriptor matching
// filter.
func (l *Locator) GetServiceByFilter(filter shared.Filter) (any, error) {
	d := l.registry.FindBestDescriptor(filter)
	if d == nil {
		err := errors.ErrServiceNotFound(filter.Contract)
		l.metrics.ObserveResolution(err)
		return nil, err
	}
	h, err := l.GetServiceHandle(d)
	if err != nil {
		return nil, err
	}
	return h.GetService()
}

// Create instantiates class through its constructor, resolving constructor
// parameters. Fields are not injected and no hooks run.
func (l *Locator) Create(class *shared.Class) (any, error) {
	if class == nil {
		return nil, errors.ErrInvalidArgument("Create", "class")
	}
	if err := l.checkOpen("Create"); err != nil {
		return nil, err
	}
	v, err := l.lifecycle.Instantiate(context.Background(), class, nil)
	if err != nil {
		return nil, l.fail("Create", err)
	}
	return v, nil
}

// CreateAndInitialize instantiates, injects and post-constructs class.
func (l *Locator) CreateAndInitialize(class *shared.Class) (any, error) {
	if class == nil {
		return nil, errors.ErrInvalidArgument("CreateAndInitialize", "class")
	}
	if err := l.checkOpen("CreateAndInitialize"); err != nil {
		return nil, err
	}
	inst, err := l.lifecycle.Create(context.Background(), class, nil)
	if err != nil {
		return nil, l.fail("CreateAndInitialize", err)
	}
	return inst.Value, nil
}

// Inject injects the fields and initializer methods of instance. The class
// of instance must be known to one of the locator's loaders.
func (l *Locator) Inject(instance any) error {
	if instance == nil {
		return errors.ErrInvalidArgument("Inject", "instance")
	}
	if err := l.checkOpen("Inject"); err != nil {
		return err
	}
	class, ok := l.loader.ClassOf(instance)
	if !ok {
		return l.fail("Inject", errors.NewMultiError(errors.ErrNoClass(instance)))
	}
	if err := l.lifecycle.Inject(context.Background(), instance, class, nil); err != nil {
		return l.fail("Inject", err)
	}
	return nil
}

// PostConstruct runs the post-construct hook of instance.
func (l *Locator) PostConstruct(instance any) error {
	if instance == nil {
		return errors.ErrInvalidArgument("PostConstruct", "instance")
	}
	class, _ := l.loader.ClassOf(instance)
	if err := l.lifecycle.PostConstruct(instance, class); err != nil {
		return l.fail("PostConstruct", err)
	}
	return nil
}

// PreDestroy runs the pre-destroy hook of instance.
func (l *Locator) PreDestroy(instance any) error {
	if instance == nil {
		return errors.ErrInvalidArgument("PreDestroy", "instance")
	}
	class, _ := l.loader.ClassOf(instance)
	if err := l.lifecycle.PreDestroy(instance, class); err != nil {
		return l.fail("PreDestroy", err)
	}
	return nil
}

// Shutdown pre-destroys every cached instance in reverse creation order.
// Calling it again is a no-op.
func (l *Locator) Shutdown() error {
	if !l.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	err := l.cached.destroy(l.lifecycle)
	l.metrics.SetSingletons(0)
	if err != nil {
		return l.fail("Shutdown", err)
	}
	l.log.Debug("locator shut down")
	return nil
}

func (l *Locator) checkOpen(operation string) error {
	if l.shutdown.Load() {
		return errors.ErrIllegalState(operation, "locator has been shut down")
	}
	return nil
}

func (l *Locator) fail(operation string, err error) error {
	l.log.Warn("operation failed", logger.String("operation", operation), logger.Error(err))
	return err
}

// serviceFor returns the service of d in its scope for an injection point
// resolved under ctx.
func (l *Locator) serviceFor(ctx context.Context, d *shared.ActiveDescriptor) (any, error) {
	v, inst, err := l.obtain(ctx, d)
	if inst != nil {
		lifecycle.TrackDependent(ctx, inst)
	}
	return v, err
}

// obtain returns the service of d. For per-lookup descriptors the created
// instance is returned too so that its owner can destroy it.
func (l *Locator) obtain(ctx context.Context, d *shared.ActiveDescriptor) (any, *lifecycle.Instance, error) {
	if c, ok := d.Constant(); ok {
		return c, nil, nil
	}
	if err := l.checkOpen("GetService"); err != nil {
		return nil, nil, err
	}
	if cycle := inFlight(ctx, d); cycle != nil {
		return nil, nil, errors.NewMultiError(errors.ErrCircularDependency(cycle))
	}
	ctx = withInFlight(ctx, d)

	if d.Scope() == shared.ScopePerLookup {
		inst, err := l.instantiate(ctx, d)
		if err != nil {
			return nil, nil, err
		}
		return inst.Value, inst, nil
	}

	v, err := l.cached.get(ctx, d, func(ctx context.Context) (*lifecycle.Instance, error) {
		return l.instantiate(ctx, d)
	})
	if err == nil {
		l.metrics.SetSingletons(l.cached.len())
	}
	return v, nil, err
}

func (l *Locator) instantiate(ctx context.Context, d *shared.ActiveDescriptor) (*lifecycle.Instance, error) {
	ctx, span := l.tracer.Start(ctx, "locator.create", trace.WithAttributes(
		attribute.String("locator.implementation", d.Implementation()),
		attribute.String("locator.scope", d.Scope()),
	))
	defer span.End()

	class, err := l.loader.Load(d.Implementation())
	if err != nil {
		err = errors.NewMultiError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	start := time.Now()
	inst, err := l.lifecycle.Create(ctx, class, d)
	l.metrics.ObserveCreation(d.Scope(), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "creation failed")
		return nil, err
	}
	return inst, nil
}

// ConfigurationService hands out configuration transactions. It is bound in
// every locator under shared.DynamicConfigurationServiceContract.
type ConfigurationService struct {
	locator *Locator
}

// CreateDynamicConfiguration opens a new configuration transaction.
func (s *ConfigurationService) CreateDynamicConfiguration() *dynconfig.Configuration {
	return s.locator.CreateDynamicConfiguration()
}

// Locator returns the owning locator.
func (s *ConfigurationService) Locator() *Locator { return s.locator }

// KnownScopes returns the scope names accepted at commit.
func (l *Locator) KnownScopes() []string { return slices.Clone(l.scopes) }
