package mqtt

import (
	"sync"

	"codeberg.org/mutker/runcat/internal/sampler"
)

// FakePublisher records published samples for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Samples contains all samples that were published.
	Samples []sampler.Sample

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the sample.
func (f *FakePublisher) Publish(sample sampler.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(sample)
	if err != nil {
		return err
	}
	f.Samples = append(f.Samples, sample)
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

// Published returns a copy of the recorded samples.
func (f *FakePublisher) Published() []sampler.Sample {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sampler.Sample(nil), f.Samples...)
}
