package mqtt

import (
	"fmt"
	"os"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"codeberg.org/mutker/runcat/internal/sampler"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topic  string
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, topic string) (*RealPublisher, error) {
	if topic == "" {
		topic = DefaultTopic()
	}

	host, _ := os.Hostname()
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("runcat-%s-%d", host, os.Getpid())).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	if err := connect(client, broker, connectTimeout); err != nil {
		return nil, err
	}

	return &RealPublisher{
		client: client,
		topic:  topic,
	}, nil
}

// connect waits for the first connection. On failure the client is
// disconnected so it stops retrying in the background.
func connect(client paho.Client, broker string, timeout time.Duration) error {
	errFactory := errors.New()

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return errFactory.WithData(ErrConnectTimeout, broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return errFactory.Wrap(ErrConnect, err)
	}

	return nil
}

// Publish sends a sample to the broker.
func (p *RealPublisher) Publish(sample sampler.Sample) error {
	errFactory := errors.New()

	payload, err := FormatPayload(sample)
	if err != nil {
		return errFactory.Wrap(ErrFormatPayload, err)
	}

	// QoS 0 (at-most-once), not retained
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errFactory.WithData(ErrPublishTimeout, p.topic)
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrPublish, err)
	}

	return nil
}

// Topic returns the topic samples are published on.
func (p *RealPublisher) Topic() string {
	return p.topic
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
