package sampler

import (
	"context"
	"sync"
)

// FakeReader returns scripted readings for tests.
type FakeReader struct {
	mu sync.Mutex

	// Values are returned in order; the last one repeats once exhausted.
	Values []float64

	// Errors, if non-nil at the current call index, is returned instead of a value.
	Errors []error

	calls int
}

// Percent returns the next scripted reading.
func (f *FakeReader) Percent(_ context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++

	if i < len(f.Errors) && f.Errors[i] != nil {
		return 0, f.Errors[i]
	}
	if len(f.Values) == 0 {
		return 0, nil
	}
	if i >= len(f.Values) {
		i = len(f.Values) - 1
	}

	return f.Values[i], nil
}

// Calls returns how many readings were requested.
func (f *FakeReader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
