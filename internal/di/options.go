package di

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/locator/internal/loader"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/metrics"
)

// Option configures a Locator.
type Option func(*options)

type options struct {
	name           string
	logger         logger.Logger
	metrics        *metrics.Metrics
	tracerProvider trace.TracerProvider
	tracerName     string
	fallback       []loader.Loader
	contextLoader  bool
	scopes         []string
}

func defaultOptions() *options {
	return &options{
		name:          "default",
		tracerName:    tracerName,
		contextLoader: true,
	}
}

// WithName names the locator in logs and spans.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithTracerName sets the instrumentation name of the locator's tracer.
func WithTracerName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.tracerName = name
		}
	}
}

// WithFallbackLoader appends a loader consulted after the locator's own
// classes and the process-wide registry.
func WithFallbackLoader(l loader.Loader) Option {
	return func(o *options) { o.fallback = append(o.fallback, l) }
}

// WithoutContextLoader stops the locator from consulting loader.Default.
func WithoutContextLoader() Option {
	return func(o *options) { o.contextLoader = false }
}

// WithScopes registers extra scope names. Services bound into them are cached
// per locator like singletons.
func WithScopes(scopes ...string) Option {
	return func(o *options) { o.scopes = append(o.scopes, scopes...) }
}
