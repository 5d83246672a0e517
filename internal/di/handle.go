package di

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/locator/internal/lifecycle"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/shared"
)

// ServiceHandle is a lazy reference to the service of one descriptor.
type ServiceHandle struct {
	locator    *Locator
	descriptor *shared.ActiveDescriptor

	mu        sync.Mutex
	service   any
	obtained  bool
	instance  *lifecycle.Instance
	destroyed bool
}

// ActiveDescriptor returns the descriptor behind the handle.
func (h *ServiceHandle) ActiveDescriptor() *shared.ActiveDescriptor { return h.descriptor }

// GetService loads, creates and initializes the service on first use and
// returns the same value afterwards. Failures are not remembered; the next
// call tries again.
func (h *ServiceHandle) GetService() (any, error) {
	return h.GetServiceContext(context.Background())
}

// GetServiceContext is GetService with a parent context for tracing.
func (h *ServiceHandle) GetServiceContext(ctx context.Context) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.obtained {
		return h.service, nil
	}

	l := h.locator
	ctx, span := l.tracer.Start(ctx, "locator.getService", trace.WithAttributes(
		attribute.String("locator.implementation", h.descriptor.Implementation()),
		attribute.Int64("locator.service_id", h.descriptor.ServiceID()),
	))
	defer span.End()

	v, inst, err := l.obtain(ctx, h.descriptor)
	l.metrics.ObserveResolution(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service unavailable")
		l.log.Warn("service unavailable",
			logger.Descriptor(h.descriptor.Implementation()),
			logger.Error(err),
		)
		return nil, err
	}

	h.service = v
	h.instance = inst
	h.obtained = true
	h.destroyed = false
	return v, nil
}

// IsActive reports whether the service has been created: for cached scopes
// anywhere in the locator, for per-lookup services by this handle.
func (h *ServiceHandle) IsActive() bool {
	if _, ok := h.descriptor.Constant(); ok {
		return true
	}
	if h.descriptor.Scope() != shared.ScopePerLookup {
		return h.locator.cached.active(h.descriptor)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.obtained && !h.destroyed
}

// Destroy pre-destroys a per-lookup service created by this handle. Services
// of cached scopes live until the locator shuts down.
func (h *ServiceHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.instance == nil || h.destroyed {
		return nil
	}
	h.destroyed = true
	h.obtained = false
	return h.locator.lifecycle.Destroy(h.instance)
}
