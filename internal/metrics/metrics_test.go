package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/locator/internal/errors"
)

func TestObserveCommit(t *testing.T) {
	m := New("test")

	m.ObserveCommit(nil, 3, 5)
	m.ObserveCommit(errors.NewMultiError(
		errors.ErrInvalidResolver("a.R"),
		errors.NewClassNotFound("a.R", "locator"),
		errors.NewClassNotFound("a.R", "context"),
	), 2, 5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.bindings))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.descriptors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("structural")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failures.WithLabelValues("load")))
}

func TestObserveResolution(t *testing.T) {
	m := New("test")

	m.ObserveResolution(nil)
	m.ObserveResolution(errors.ErrServiceNotFound("a.C"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("unsatisfied")))
}

func TestObserveCreation(t *testing.T) {
	m := New("test")

	m.ObserveCreation("Singleton", 2*time.Millisecond)
	m.SetSingletons(1)

	assert.Equal(t, 1, testutil.CollectAndCount(m.creation, "test_locator_creation_duration_seconds"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.singletons))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCommit(nil, 1, 1)
		m.ObserveResolution(errors.New("x"))
		m.ObserveCreation("PerLookup", time.Second)
		m.SetSingletons(2)
		require.NoError(t, m.RegisterRuntime())
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New("test")
	require.NoError(t, m.RegisterRuntime())
	m.ObserveCommit(nil, 1, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_locator_commits_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
