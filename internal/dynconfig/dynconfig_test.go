package dynconfig

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/loader"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/metrics"
	"github.com/xraph/locator/internal/registry"
	"github.com/xraph/locator/internal/shared"
)

const (
	rawResolver      = "dynconfig.test.RawResolver"
	variableResolver = "dynconfig.test.TypeVariableResolver"
	plainResolver    = "dynconfig.test.NotAnnotationResolver"
	goodResolver     = "dynconfig.test.GoodResolver"
	missingClass     = "this.class.is.not.Here"

	resolverMessage = "An implementation of InjectionResolver must be a parameterized type and the actual type must be an annotation"
)

func testLoader() loader.Chain {
	own := loader.NewRegistry("locator")
	own.MustRegister(
		&shared.Class{Name: rawResolver},
		&shared.Class{Name: variableResolver, ResolverTypeArg: &shared.TypeArg{Kind: shared.TypeArgVariable, Name: "T"}},
		&shared.Class{Name: plainResolver, ResolverTypeArg: &shared.TypeArg{Kind: shared.TypeArgConcrete, Name: "string"}},
		&shared.Class{Name: goodResolver, ResolverTypeArg: &shared.TypeArg{Kind: shared.TypeArgConcrete, Name: "Custom", Marker: true}},
	)
	return loader.Chain{own, loader.NewRegistry("context")}
}

type fixture struct {
	reg     *registry.Registry
	logs    *observer.ObservedLogs
	spans   *tracetest.SpanRecorder
	metrics *metrics.Metrics
	dc      *Configuration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := &fixture{
		reg:     registry.New(0),
		logs:    logs,
		spans:   spans,
		metrics: metrics.New("test"),
	}
	f.dc = New(f.reg, Options{
		Loader:  testLoader(),
		Logger:  logger.FromZap(zap.New(core)),
		Metrics: f.metrics,
		Tracer:  provider.Tracer("test"),
	})
	return f
}

func resolverDescriptor(impl string) *shared.Descriptor {
	return &shared.Descriptor{
		Implementation: impl,
		Contracts:      []string{shared.InjectionResolverContract},
		Scope:          shared.ScopeSingleton,
	}
}

func TestBind(t *testing.T) {
	f := newFixture(t)

	_, err := f.dc.Bind(nil)
	assert.True(t, errors.IsInvalidArgument(err))

	a, err := f.dc.Bind(&shared.Descriptor{Implementation: "a.A"})
	require.NoError(t, err)
	b, err := f.dc.Bind(&shared.Descriptor{Implementation: "a.B"})
	require.NoError(t, err)

	assert.Less(t, a.ServiceID(), b.ServiceID())
	assert.Len(t, f.dc.Staged(), 2)
	assert.Equal(t, 0, f.reg.Size(), "nothing is visible before commit")
}

func TestCommit_Publishes(t *testing.T) {
	f := newFixture(t)

	_, err := f.dc.Bind(&shared.Descriptor{Implementation: missingClass})
	require.NoError(t, err)
	_, err = f.dc.Bind(resolverDescriptor(goodResolver))
	require.NoError(t, err)

	require.NoError(t, f.dc.Commit(), "ordinary bindings are not loaded at commit")
	assert.Equal(t, 2, f.reg.Size())
	assert.NotNil(t, f.reg.Resolver("Custom"))

	expected := `
# HELP test_locator_commits_total Configuration commits by outcome
# TYPE test_locator_commits_total counter
test_locator_commits_total{outcome="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "test_locator_commits_total"))
	assert.Equal(t, 1, f.logs.FilterMessage("configuration committed").Len())

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "locator.commit", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestCommit_Twice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.dc.Commit())

	err := f.dc.Commit()
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))

	_, err = f.dc.Bind(&shared.Descriptor{Implementation: "a.Late"})
	assert.True(t, errors.IsPrecondition(err))
}

func TestCommit_InvalidResolvers(t *testing.T) {
	tests := []struct {
		name string
		impl string
	}{
		{"raw", rawResolver},
		{"type variable", variableResolver},
		{"not a marker", plainResolver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.dc.Bind(resolverDescriptor(tt.impl))
			require.NoError(t, err)

			err = f.dc.Commit()
			multi, ok := errors.AsMultiError(err)
			require.True(t, ok)
			require.Equal(t, 1, multi.Len())
			assert.Contains(t, multi.Errors()[0].Error(), resolverMessage)
			assert.Equal(t, 0, f.reg.Size())
		})
	}
}

func TestCommit_MissingResolverClass(t *testing.T) {
	f := newFixture(t)
	_, err := f.dc.Bind(resolverDescriptor(missingClass))
	require.NoError(t, err)

	err = f.dc.Commit()
	multi, ok := errors.AsMultiError(err)
	require.True(t, ok)
	assert.Len(t, multi.Filter(errors.KindLoad), 2)

	var cnf *errors.ClassNotFoundError
	require.ErrorAs(t, err, &cnf)
	assert.Equal(t, missingClass, cnf.Name)
}

func TestCommit_WholeBatchAbort(t *testing.T) {
	f := newFixture(t)

	_, err := f.dc.Bind(&shared.Descriptor{Implementation: "a.Fine"})
	require.NoError(t, err)
	_, err = f.dc.Bind(&shared.Descriptor{Implementation: "a.Scoped", Scope: "Request"})
	require.NoError(t, err)
	_, err = f.dc.Bind(&shared.Descriptor{Implementation: "not well formed"})
	require.NoError(t, err)
	_, err = f.dc.Bind(resolverDescriptor(rawResolver))
	require.NoError(t, err)

	err = f.dc.Commit()
	multi, ok := errors.AsMultiError(err)
	require.True(t, ok)

	assert.Equal(t, 3, multi.Len())
	assert.Len(t, multi.Filter(errors.KindStructural), 3)
	assert.Equal(t, 0, f.reg.Size(), "a failing commit publishes nothing")
	assert.Nil(t, f.reg.FindBestDescriptor(shared.ContractFilter("a.Fine")))

	assert.Equal(t, 1, f.logs.FilterMessage("configuration commit aborted").Len())
	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestCommit_ExtraScopes(t *testing.T) {
	reg := registry.New(0)
	dc := New(reg, Options{Scopes: []string{shared.ScopePerLookup, shared.ScopeSingleton, "Request"}})

	_, err := dc.Bind(&shared.Descriptor{Implementation: "a.Scoped", Scope: "Request"})
	require.NoError(t, err)
	require.NoError(t, dc.Commit())
	assert.Equal(t, 1, reg.Size())
}
