package errors

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// MultiError is an ordered aggregate of failures raised by one operation.
// It is never empty.
type MultiError struct {
	errs []error
}

// NewMultiError flattens errs into a MultiError. It returns nil when no
// non-nil error is given.
func NewMultiError(errs ...error) *MultiError {
	c := NewCollector()
	c.Add(errs...)
	if c.Empty() {
		return nil
	}
	return &MultiError{errs: c.Errors()}
}

// Errors returns the causes in the order they were collected.
func (m *MultiError) Errors() []error {
	out := make([]error, len(m.errs))
	copy(out, m.errs)
	return out
}

// Len returns the number of causes.
func (m *MultiError) Len() int { return len(m.errs) }

func (m *MultiError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "A MultiError has %d errors. They are:", len(m.errs))
	for i, err := range m.errs {
		fmt.Fprintf(&b, "\n%d. %s", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the causes to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error { return m.Errors() }

// Filter returns the causes of the given kind, in order.
func (m *MultiError) Filter(kind Kind) []error {
	var out []error
	for _, err := range m.errs {
		if KindOf(err) == kind {
			out = append(out, err)
		}
	}
	return out
}

// AsMultiError reports whether err is a MultiError and returns it.
func AsMultiError(err error) (*MultiError, bool) {
	m, ok := err.(*MultiError)
	return m, ok
}

// Collector accumulates failures in order. Nested aggregates are flattened so
// the final MultiError lists leaf causes only.
type Collector struct {
	err error
	n   int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

type errorGroup interface {
	Errors() []error
}

// Add appends errs, skipping nils.
func (c *Collector) Add(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if group, ok := err.(errorGroup); ok {
			c.Add(group.Errors()...)
			continue
		}
		c.err = multierr.Append(c.err, err)
		c.n++
	}
}

// Empty reports whether nothing was collected.
func (c *Collector) Empty() bool { return c.n == 0 }

// Len returns the number of collected causes.
func (c *Collector) Len() int { return c.n }

// Errors returns the collected causes in order.
func (c *Collector) Errors() []error {
	if c.n == 0 {
		return nil
	}
	return multierr.Errors(c.err)
}

// Err returns the collected causes as a *MultiError, or nil when empty.
func (c *Collector) Err() error {
	if c.n == 0 {
		return nil
	}
	return &MultiError{errs: c.Errors()}
}
