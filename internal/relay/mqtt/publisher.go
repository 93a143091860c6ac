// Package mqtt publishes single device commands over an authenticated,
// TLS-secured MQTT session. Sessions are per-publish: connect, publish one
// message at QoS 1, tear down. No pooling, no retained messages.
package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	// ControlPort is the broker's TLS listener for device control traffic.
	ControlPort = 8883

	// publishQoS is at-least-once. The broker accepting the publish is the
	// delivery guarantee; device acknowledgment is out of scope.
	publishQoS byte = 1

	// DefaultAckTimeout bounds the wait for broker acknowledgment.
	DefaultAckTimeout = 3 * time.Second

	// disconnectQuiesceMs gives in-flight work a moment to settle on teardown.
	disconnectQuiesceMs = 100
)

var (
	// ErrConnectFailed reports that no session could be established.
	ErrConnectFailed = errors.New("mqtt connect failed")

	// ErrPublishFailed reports a rejected or unacknowledged publish,
	// including an acknowledgment wait that exceeded its bound.
	ErrPublishFailed = errors.New("mqtt publish failed")
)

// Connection carries the per-publish broker credentials resolved from the
// secret store. It is never persisted.
type Connection struct {
	Host     string
	Username string
	Password string
}

// Publisher publishes one (topic, payload) message over a secured session.
type Publisher interface {
	Publish(ctx context.Context, conn Connection, topic, payload string) error
}

// client is the subset of the paho client the publisher uses; narrowed so
// tests can substitute a fake.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

var newClient = func(opts *paho.ClientOptions) client { return paho.NewClient(opts) }

// PahoPublisher is the production Publisher backed by paho.mqtt.golang.
type PahoPublisher struct {
	Logger *slog.Logger

	// AckTimeout bounds the broker acknowledgment wait. Zero means
	// DefaultAckTimeout.
	AckTimeout time.Duration

	// Port overrides ControlPort. Zero means ControlPort.
	Port int

	// DisableTLS connects over tcp:// instead of tls://. Only for local
	// development brokers and integration tests without TLS termination.
	DisableTLS bool
}

func (p *PahoPublisher) Publish(ctx context.Context, conn Connection, topic, payload string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	timeout := p.AckTimeout
	if timeout <= 0 {
		timeout = DefaultAckTimeout
	}
	port := p.Port
	if port <= 0 {
		port = ControlPort
	}

	scheme := "tls"
	if p.DisableTLS {
		scheme = "tcp"
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, conn.Host, port)).
		SetUsername(conn.Username).
		SetPassword(conn.Password).
		SetConnectTimeout(timeout).
		SetAutoReconnect(false)
	if !p.DisableTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	c := newClient(opts)

	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, token.Error())
	}
	// Session established; tear it down on every exit path from here on.
	defer c.Disconnect(disconnectQuiesceMs)

	token := c.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: no broker acknowledgment within %s", ErrPublishFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	if p.Logger != nil {
		p.Logger.Debug("command published", "topic", topic)
	}
	return nil
}
