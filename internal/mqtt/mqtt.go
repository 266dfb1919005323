// Package mqtt publishes CPU samples to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"codeberg.org/mutker/runcat/internal/animator"
	"codeberg.org/mutker/runcat/internal/sampler"
)

const topicFormat = "runcat/%s/cpu"

// Publisher publishes samples to MQTT.
type Publisher interface {
	// Publish sends one sample to the broker. Failures are returned, never
	// fatal to the caller.
	Publish(sample sampler.Sample) error

	// Close disconnects from the broker.
	Close() error
}

// DefaultTopic returns runcat/<hostname>/cpu.
func DefaultTopic() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf(topicFormat, host)
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	CPU CPUPayload `json:"cpu"`
}

// CPUPayload contains one sample and the frame delay it maps to.
type CPUPayload struct {
	Timestamp string  `json:"timestamp"`
	Percent   float64 `json:"percent"`
	DelayMs   uint64  `json:"delay_ms"`
}

// FormatPayload creates the JSON payload for a sample.
func FormatPayload(sample sampler.Sample) ([]byte, error) {
	payload := Payload{
		CPU: CPUPayload{
			Timestamp: sample.At.UTC().Format(time.RFC3339),
			Percent:   sample.Percent,
			DelayMs:   animator.DelayMillis(sample.Percent),
		},
	}
	return json.Marshal(payload)
}
