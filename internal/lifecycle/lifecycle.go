// Package lifecycle creates, injects and tears down service instances.
//
// Every entry point validates and resolves everything it can before it
// reports, so a single call surfaces all of its failures at once.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/shared"
)

// State is the lifecycle state of one managed instance.
type State int

const (
	StateNew State = iota
	StateCreated
	StateInjected
	StatePostConstructed
	StatePreDestroying
	StateDestroyed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateCreated:
		return "created"
	case StateInjected:
		return "injected"
	case StatePostConstructed:
		return "post-constructed"
	case StatePreDestroying:
		return "pre-destroying"
	case StateDestroyed:
		return "destroyed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Invocation phases used in InvocationError.
const (
	PhaseConstructor   = "constructor"
	PhaseField         = "field"
	PhaseInitializer   = "initializer method"
	PhasePostConstruct = "post-construct method"
	PhasePreDestroy    = "pre-destroy method"
)

// Resolver produces the value of an injection point. ctx carries the state of
// the resolution in progress and must be handed on to nested creations.
type Resolver interface {
	Resolve(ctx context.Context, injectee *shared.Injectee) (any, error)
}

// Orchestrator drives instances through their lifecycle.
type Orchestrator struct {
	resolver Resolver
	log      logger.Logger
}

// New creates an Orchestrator resolving injection points through r.
func New(r Resolver, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Orchestrator{resolver: r, log: log}
}

// Instance is an instance created by the orchestrator together with its
// lifecycle state.
type Instance struct {
	Value any
	Class *shared.Class
	State State
}

type dependentsKey struct{}

// dependents are the per-lookup instances created for the injection points
// of one target.
type dependents struct {
	instances []*Instance
}

func withDependents(ctx context.Context) (context.Context, *dependents) {
	d := &dependents{}
	return context.WithValue(ctx, dependentsKey{}, d), d
}

// TrackDependent records inst as created for an injection point resolved
// under ctx. If the target is abandoned before its injection points are
// applied, the orchestrator destroys inst. Outside a resolution it does
// nothing.
func TrackDependent(ctx context.Context, inst *Instance) {
	if d, ok := ctx.Value(dependentsKey{}).(*dependents); ok && inst != nil {
		d.instances = append(d.instances, inst)
	}
}

// release destroys the tracked dependents in reverse creation order.
func (o *Orchestrator) release(d *dependents, collector *errors.Collector) {
	for i := len(d.instances) - 1; i >= 0; i-- {
		collector.Add(o.Destroy(d.instances[i]))
	}
	d.instances = nil
}

// Instantiate resolves every constructor parameter and invokes the
// constructor. No fields are injected and no hooks run.
func (o *Orchestrator) Instantiate(ctx context.Context, class *shared.Class, self *shared.ActiveDescriptor) (any, error) {
	if class == nil {
		return nil, errors.ErrInvalidArgument("Instantiate", "class")
	}
	if class.Constructor == nil || class.Constructor.New == nil {
		return nil, errors.NewMultiError(errors.ErrNoConstructor(class.Name))
	}

	ctx, deps := withDependents(ctx)
	collector := errors.NewCollector()
	args := make([]any, len(class.Constructor.Params))
	for i, p := range class.Constructor.Params {
		v, err := o.resolver.Resolve(ctx, shared.ParamInjectee(class.Name, i, p, self))
		if err != nil {
			collector.Add(err)
			continue
		}
		args[i] = v
	}
	if !collector.Empty() {
		o.release(deps, collector)
		return nil, collector.Err()
	}

	var instance any
	err := errors.Protect(func() error {
		var cerr error
		instance, cerr = class.Constructor.New(args)
		return cerr
	})
	if err != nil {
		return nil, errors.NewMultiError(errors.NewInvocation(PhaseConstructor, class.Name, "constructor", err))
	}
	return instance, nil
}

type pendingField struct {
	field *shared.Field
	value any
}

type pendingMethod struct {
	method *shared.Method
	args   []any
}

// Inject fills the injectable fields of instance and calls its initializer
// methods. If any field or method is ineligible, or any injection point
// cannot be resolved, the instance is left untouched and the per-lookup
// dependencies already created for it are destroyed.
func (o *Orchestrator) Inject(ctx context.Context, instance any, class *shared.Class, self *shared.ActiveDescriptor) error {
	if instance == nil {
		return errors.ErrInvalidArgument("Inject", "instance")
	}
	if class == nil {
		return errors.ErrInvalidArgument("Inject", "class")
	}

	ctx, deps := withDependents(ctx)
	collector := errors.NewCollector()

	fields := make([]pendingField, 0, len(class.Fields))
	for _, f := range class.Fields {
		if f.Static || f.Final || f.MarkerTyped || f.Set == nil {
			collector.Add(errors.ErrIneligibleField(class.Name, f.Name))
			continue
		}
		v, err := o.resolver.Resolve(ctx, shared.FieldInjectee(class.Name, f, self))
		if err != nil {
			collector.Add(err)
			continue
		}
		fields = append(fields, pendingField{field: f, value: v})
	}

	methods := make([]pendingMethod, 0, len(class.Methods))
	for _, m := range class.Methods {
		if !eligibleMethod(m) {
			collector.Add(errors.ErrIneligibleMethod(class.Name, m.Name))
			continue
		}
		args := make([]any, len(m.Params))
		ok := true
		for i, p := range m.Params {
			v, err := o.resolver.Resolve(ctx, shared.ParamInjectee(class.Name, i, p, self))
			if err != nil {
				collector.Add(err)
				ok = false
				continue
			}
			args[i] = v
		}
		if ok {
			methods = append(methods, pendingMethod{method: m, args: args})
		}
	}

	if !collector.Empty() {
		o.release(deps, collector)
		return collector.Err()
	}

	for _, pf := range fields {
		err := errors.Protect(func() error { return pf.field.Set(instance, pf.value) })
		if err != nil {
			collector.Add(errors.NewInvocation(PhaseField, class.Name, pf.field.Name, err))
		}
	}
	for _, pm := range methods {
		err := errors.Protect(func() error { return pm.method.Invoke(instance, pm.args) })
		if err != nil {
			collector.Add(errors.NewInvocation(PhaseInitializer, class.Name, pm.method.Name, err))
		}
	}
	return collector.Err()
}

func eligibleMethod(m *shared.Method) bool {
	if m.Static || m.Invoke == nil {
		return false
	}
	for _, p := range m.Params {
		if p.MarkerTyped {
			return false
		}
	}
	return true
}

// PostConstruct runs the post-construct hook of instance. class may be nil,
// in which case only a shared.PostConstructor implementation is honoured.
func (o *Orchestrator) PostConstruct(instance any, class *shared.Class) error {
	if instance == nil {
		return errors.ErrInvalidArgument("PostConstruct", "instance")
	}

	var hook *shared.Hook
	if class != nil {
		hook = class.PostConstruct
	}
	fallback := func() error {
		if pc, ok := instance.(shared.PostConstructor); ok {
			return pc.PostConstruct()
		}
		return nil
	}
	return o.runHook(instance, class, hook, shared.PostConstructMarker, PhasePostConstruct, fallback)
}

// PreDestroy runs the pre-destroy hook of instance. It never injects.
func (o *Orchestrator) PreDestroy(instance any, class *shared.Class) error {
	if instance == nil {
		return errors.ErrInvalidArgument("PreDestroy", "instance")
	}

	var hook *shared.Hook
	if class != nil {
		hook = class.PreDestroy
	}
	fallback := func() error {
		if pd, ok := instance.(shared.PreDestroyer); ok {
			return pd.PreDestroy()
		}
		return nil
	}
	return o.runHook(instance, class, hook, shared.PreDestroyMarker, PhasePreDestroy, fallback)
}

func (o *Orchestrator) runHook(instance any, class *shared.Class, hook *shared.Hook, marker, phase string, fallback func() error) error {
	className := fmt.Sprintf("%T", instance)
	if class != nil {
		className = class.Name
	}

	if hook == nil {
		if err := errors.Protect(fallback); err != nil {
			return errors.NewMultiError(errors.NewInvocation(phase, className, marker, err))
		}
		return nil
	}

	if len(hook.Params) > 0 {
		return errors.NewMultiError(errors.ErrHookArguments(className, hook.Name, marker))
	}
	if hook.Invoke == nil {
		return nil
	}
	if err := errors.Protect(func() error { return hook.Invoke(instance) }); err != nil {
		return errors.NewMultiError(errors.NewInvocation(phase, className, hook.Name, err))
	}
	return nil
}

// Create instantiates, injects and post-constructs an instance of class.
func (o *Orchestrator) Create(ctx context.Context, class *shared.Class, self *shared.ActiveDescriptor) (*Instance, error) {
	if class == nil {
		return nil, errors.ErrInvalidArgument("Create", "class")
	}

	inst := &Instance{Class: class, State: StateNew}
	fail := func(err error) (*Instance, error) {
		inst.State = StateFailed
		o.log.Debug("instance creation failed",
			logger.String("class", class.Name),
			logger.Error(err),
		)
		return inst, err
	}

	v, err := o.Instantiate(ctx, class, self)
	if err != nil {
		return fail(err)
	}
	inst.Value = v
	inst.State = StateCreated

	if err := o.Inject(ctx, v, class, self); err != nil {
		return fail(err)
	}
	inst.State = StateInjected

	if err := o.PostConstruct(v, class); err != nil {
		return fail(err)
	}
	inst.State = StatePostConstructed

	o.log.Debug("instance created", logger.String("class", class.Name))
	return inst, nil
}

// Destroy runs pre-destroy on an instance previously returned by Create.
// Destroying an instance twice is a no-op.
func (o *Orchestrator) Destroy(inst *Instance) error {
	if inst == nil {
		return errors.ErrInvalidArgument("Destroy", "instance")
	}
	if inst.State == StateDestroyed || inst.Value == nil {
		return nil
	}

	inst.State = StatePreDestroying
	if err := o.PreDestroy(inst.Value, inst.Class); err != nil {
		inst.State = StateFailed
		return err
	}
	inst.State = StateDestroyed
	return nil
}
