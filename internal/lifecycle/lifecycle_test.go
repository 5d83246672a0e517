package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/shared"
)

// mapResolver resolves injectees by required type from a fixed map.
type mapResolver map[string]any

func (m mapResolver) Resolve(_ context.Context, injectee *shared.Injectee) (any, error) {
	if v, ok := m[injectee.RequiredType]; ok {
		return v, nil
	}
	if injectee.Optional {
		return nil, nil
	}
	return nil, errors.NewUnsatisfiedDependency(injectee)
}

type target struct {
	dep       string
	other     string
	inited    []string
	destroyed int
}

func ip(typ string) shared.InjectionPoint { return shared.InjectionPoint{Type: typ} }

func setDep(instance, value any) error {
	instance.(*target).dep = value.(string)
	return nil
}

func setOther(instance, value any) error {
	instance.(*target).other = value.(string)
	return nil
}

func targetClass() *shared.Class {
	return &shared.Class{
		Name: "lifecycle.test.Target",
		Constructor: &shared.Constructor{
			New: func([]any) (any, error) { return &target{}, nil },
		},
		Fields: []*shared.Field{
			{Name: "dep", InjectionPoint: ip("a.Dep"), Set: setDep},
		},
		Methods: []*shared.Method{{
			Name:   "Init",
			Params: []*shared.Param{{Owner: "Init", InjectionPoint: ip("a.Dep")}},
			Invoke: func(instance any, args []any) error {
				t := instance.(*target)
				t.inited = append(t.inited, args[0].(string))
				return nil
			},
		}},
		PostConstruct: &shared.Hook{Name: "Setup", Invoke: func(instance any) error {
			instance.(*target).inited = append(instance.(*target).inited, "post")
			return nil
		}},
		PreDestroy: &shared.Hook{Name: "Close", Invoke: func(instance any) error {
			instance.(*target).destroyed++
			return nil
		}},
	}
}

func TestCreate(t *testing.T) {
	o := New(mapResolver{"a.Dep": "dep"}, nil)

	inst, err := o.Create(context.Background(), targetClass(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatePostConstructed, inst.State)

	tg := inst.Value.(*target)
	assert.Equal(t, "dep", tg.dep)
	assert.Equal(t, []string{"dep", "post"}, tg.inited)

	require.NoError(t, o.Destroy(inst))
	assert.Equal(t, StateDestroyed, inst.State)
	require.NoError(t, o.Destroy(inst))
	assert.Equal(t, 1, tg.destroyed)
}

func TestInstantiate(t *testing.T) {
	t.Run("constructor parameters", func(t *testing.T) {
		class := &shared.Class{
			Name: "a.WithParams",
			Constructor: &shared.Constructor{
				Params: []*shared.Param{{Owner: "New", InjectionPoint: ip("a.Dep")}},
				New:    func(args []any) (any, error) { return &target{dep: args[0].(string)}, nil },
			},
		}
		v, err := New(mapResolver{"a.Dep": "x"}, nil).Instantiate(context.Background(), class, nil)
		require.NoError(t, err)
		assert.Equal(t, "x", v.(*target).dep)
	})

	t.Run("every unresolved parameter is reported", func(t *testing.T) {
		called := false
		class := &shared.Class{
			Name: "a.WithParams",
			Constructor: &shared.Constructor{
				Params: []*shared.Param{
					{Owner: "New", InjectionPoint: ip("a.One")},
					{Owner: "New", InjectionPoint: ip("a.Two")},
				},
				New: func([]any) (any, error) {
					called = true
					return nil, nil
				},
			},
		}
		_, err := New(mapResolver{}, nil).Instantiate(context.Background(), class, nil)
		multi, ok := errors.AsMultiError(err)
		require.True(t, ok)
		assert.Len(t, multi.Filter(errors.KindUnsatisfied), 2)
		assert.False(t, called)
	})

	t.Run("constructor failure", func(t *testing.T) {
		class := &shared.Class{
			Name: "a.Throwy",
			Constructor: &shared.Constructor{
				New: func([]any) (any, error) { return nil, errors.New("Expected") },
			},
		}
		_, err := New(mapResolver{}, nil).Instantiate(context.Background(), class, nil)
		multi, ok := errors.AsMultiError(err)
		require.True(t, ok)
		require.Equal(t, 1, multi.Len())
		assert.Equal(t, errors.KindInvocation, errors.KindOf(multi.Errors()[0]))
		assert.Contains(t, err.Error(), "Expected")
	})

	t.Run("constructor panic", func(t *testing.T) {
		class := &shared.Class{
			Name:        "a.Panicky",
			Constructor: &shared.Constructor{New: func([]any) (any, error) { panic("Expected") }},
		}
		_, err := New(mapResolver{}, nil).Instantiate(context.Background(), class, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expected")
	})

	t.Run("no constructor", func(t *testing.T) {
		_, err := New(mapResolver{}, nil).Instantiate(context.Background(), &shared.Class{Name: "a.Abstract"}, nil)
		multi, ok := errors.AsMultiError(err)
		require.True(t, ok)
		assert.Len(t, multi.Filter(errors.KindStructural), 1)
	})
}

func TestInject_IneligibleFields(t *testing.T) {
	for _, f := range []*shared.Field{
		{Name: "static", InjectionPoint: ip("a.Dep"), Static: true, Set: setDep},
		{Name: "final", InjectionPoint: ip("a.Dep"), Final: true, Set: setDep},
		{Name: "marker", InjectionPoint: ip("a.Dep"), MarkerTyped: true, Set: setDep},
	} {
		t.Run(f.Name, func(t *testing.T) {
			class := &shared.Class{Name: "a.Bad", Fields: []*shared.Field{
				{Name: "ok", InjectionPoint: ip("a.Dep"), Set: setOther},
				f,
			}}
			tg := &target{}

			err := New(mapResolver{"a.Dep": "dep"}, nil).Inject(context.Background(), tg, class, nil)
			multi, ok := errors.AsMultiError(err)
			require.True(t, ok)
			require.Equal(t, 1, multi.Len())
			assert.Contains(t, err.Error(), "may not be static, final or have an Annotation type")
			assert.Empty(t, tg.other, "instance must not be mutated")
		})
	}
}

func TestInject_CollectsEverything(t *testing.T) {
	class := &shared.Class{
		Name: "a.Many",
		Fields: []*shared.Field{
			{Name: "one", InjectionPoint: ip("a.One"), Set: setDep},
			{Name: "two", InjectionPoint: ip("a.Two"), Set: setOther},
			{Name: "opt", InjectionPoint: shared.InjectionPoint{Type: "a.Three", Optional: true}, Set: func(any, any) error { return nil }},
		},
		Methods: []*shared.Method{
			{Name: "Static", Static: true, Invoke: func(any, []any) error { return nil }},
			{Name: "MarkerParam", Params: []*shared.Param{{Owner: "MarkerParam", InjectionPoint: ip("a.Dep"), MarkerTyped: true}}, Invoke: func(any, []any) error { return nil }},
		},
	}

	err := New(mapResolver{}, nil).Inject(context.Background(), &target{}, class, nil)
	multi, ok := errors.AsMultiError(err)
	require.True(t, ok)
	assert.Equal(t, 4, multi.Len())
	assert.Len(t, multi.Filter(errors.KindUnsatisfied), 2)
	assert.Len(t, multi.Filter(errors.KindStructural), 2)
}

func TestInject_InvocationFailures(t *testing.T) {
	class := &shared.Class{
		Name: "a.ThrowyM",
		Fields: []*shared.Field{
			{Name: "dep", InjectionPoint: ip("a.Dep"), Set: setDep},
		},
		Methods: []*shared.Method{
			{Name: "First", Invoke: func(any, []any) error { return errors.New("Expected") }},
			{Name: "Second", Invoke: func(any, []any) error { panic("also") }},
		},
	}
	tg := &target{}

	err := New(mapResolver{"a.Dep": "dep"}, nil).Inject(context.Background(), tg, class, nil)
	multi, ok := errors.AsMultiError(err)
	require.True(t, ok)
	assert.Len(t, multi.Filter(errors.KindInvocation), 2)
	assert.Equal(t, "dep", tg.dep, "fields are set before methods run")
}

// ownedResolver creates a fresh instance for every a.Dep injection point and
// leaves everything else unsatisfied.
type ownedResolver struct {
	created []*Instance
}

func (r *ownedResolver) Resolve(ctx context.Context, injectee *shared.Injectee) (any, error) {
	if injectee.RequiredType != "a.Dep" {
		return nil, errors.NewUnsatisfiedDependency(injectee)
	}
	inst := &Instance{Value: &target{}, Class: targetClass(), State: StatePostConstructed}
	TrackDependent(ctx, inst)
	r.created = append(r.created, inst)
	return inst.Value, nil
}

func ignore(any, any) error { return nil }

func TestInject_ReleasesDependentsOnAbort(t *testing.T) {
	class := &shared.Class{
		Name: "a.Partial",
		Fields: []*shared.Field{
			{Name: "dep", InjectionPoint: ip("a.Dep"), Set: ignore},
			{Name: "missing", InjectionPoint: ip("a.Missing"), Set: ignore},
		},
	}
	r := &ownedResolver{}

	err := New(r, nil).Inject(context.Background(), &target{}, class, nil)
	multi, ok := errors.AsMultiError(err)
	require.True(t, ok)
	assert.Equal(t, 1, multi.Len())

	require.Len(t, r.created, 1)
	assert.Equal(t, StateDestroyed, r.created[0].State)
	assert.Equal(t, 1, r.created[0].Value.(*target).destroyed)
}

func TestInstantiate_ReleasesDependentsOnAbort(t *testing.T) {
	class := &shared.Class{
		Name: "a.PartialCtor",
		Constructor: &shared.Constructor{
			Params: []*shared.Param{
				{Owner: "New", InjectionPoint: ip("a.Dep")},
				{Owner: "New", InjectionPoint: ip("a.Dep")},
				{Owner: "New", InjectionPoint: ip("a.Missing")},
			},
			New: func([]any) (any, error) { return &target{}, nil },
		},
	}
	r := &ownedResolver{}

	_, err := New(r, nil).Instantiate(context.Background(), class, nil)
	require.Error(t, err)

	require.Len(t, r.created, 2)
	for _, inst := range r.created {
		assert.Equal(t, StateDestroyed, inst.State)
	}
}

func TestInject_KeepsDependentsOnSuccess(t *testing.T) {
	class := &shared.Class{
		Name:   "a.Whole",
		Fields: []*shared.Field{{Name: "dep", InjectionPoint: ip("a.Dep"), Set: ignore}},
	}
	r := &ownedResolver{}

	require.NoError(t, New(r, nil).Inject(context.Background(), &target{}, class, nil))
	require.Len(t, r.created, 1)
	assert.Equal(t, StatePostConstructed, r.created[0].State)
}

func TestTrackDependent_OutsideResolution(t *testing.T) {
	assert.NotPanics(t, func() {
		TrackDependent(context.Background(), &Instance{Value: &target{}})
	})
}

func TestInject_Preconditions(t *testing.T) {
	o := New(mapResolver{}, nil)

	assert.True(t, errors.IsPrecondition(o.Inject(context.Background(), nil, targetClass(), nil)))
	assert.True(t, errors.IsPrecondition(o.Inject(context.Background(), &target{}, nil, nil)))
	assert.True(t, errors.IsPrecondition(o.PostConstruct(nil, nil)))
	assert.True(t, errors.IsPrecondition(o.PreDestroy(nil, nil)))
	assert.True(t, errors.IsPrecondition(o.Destroy(nil)))
}

func TestHooks(t *testing.T) {
	o := New(mapResolver{}, nil)

	t.Run("arguments", func(t *testing.T) {
		class := &shared.Class{
			Name:          "a.BadPC",
			PostConstruct: &shared.Hook{Name: "Setup", Params: []string{"string"}},
			PreDestroy:    &shared.Hook{Name: "Close", Params: []string{"string"}},
		}
		err := o.PostConstruct(&target{}, class)
		assert.Contains(t, err.Error(), "annotated with @PostConstruct must not have any arguments")

		err = o.PreDestroy(&target{}, class)
		assert.Contains(t, err.Error(), "annotated with @PreDestroy must not have any arguments")
	})

	t.Run("failure", func(t *testing.T) {
		class := &shared.Class{
			Name:          "a.ThrowyPC",
			PostConstruct: &shared.Hook{Name: "Setup", Invoke: func(any) error { return errors.New("Expected") }},
		}
		err := o.PostConstruct(&target{}, class)
		multi, ok := errors.AsMultiError(err)
		require.True(t, ok)
		assert.Len(t, multi.Filter(errors.KindInvocation), 1)
		assert.Contains(t, err.Error(), "Expected")
	})

	t.Run("interface fallback", func(t *testing.T) {
		h := &hooked{}
		require.NoError(t, o.PostConstruct(h, nil))
		require.NoError(t, o.PostConstruct(&target{}, nil))
		assert.True(t, h.constructed)

		h.failDestroy = true
		err := o.PreDestroy(h, nil)
		require.Error(t, err)
		assert.Equal(t, errors.KindInvocation, errors.KindOf(err))
	})
}

type hooked struct {
	constructed bool
	failDestroy bool
}

func (h *hooked) PostConstruct() error {
	h.constructed = true
	return nil
}

func (h *hooked) PreDestroy() error {
	if h.failDestroy {
		return errors.New("Expected")
	}
	return nil
}

func TestCreate_FailureState(t *testing.T) {
	class := targetClass()
	class.PostConstruct = &shared.Hook{Name: "Setup", Invoke: func(any) error { return errors.New("Expected") }}

	inst, err := New(mapResolver{"a.Dep": "dep"}, nil).Create(context.Background(), class, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, inst.State)
	assert.Equal(t, "failed", inst.State.String())
}
