// End-to-end check of the relay pipeline against a real broker: resolve
// credentials, publish through the production publisher, observe the
// message arrive on a subscriber. Requires Docker; gated behind the
// IOTHUB_INTEGRATION environment variable.
package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/iothub/internal/relay/mqtt"
	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
	"github.com/aussiebroadwan/iothub/internal/relay/service"
)

const mosquittoImage = "eclipse-mosquitto:2"

func TestMain(m *testing.M) {
	if os.Getenv("IOTHUB_INTEGRATION") == "" {
		fmt.Fprintln(os.Stdout, "IOTHUB_INTEGRATION not set, skipping integration tests")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// setupBroker starts an anonymous-access mosquitto and returns its host
// and mapped port.
func setupBroker(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        mosquittoImage,
		ExposedPorts: []string{"1883/tcp"},
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      "testdata/mosquitto.conf",
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForListeningPort("1883/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return host, mappedPort.Int()
}

// subscribe opens a plain paho subscription and returns a channel that
// yields message payloads.
func subscribe(t *testing.T, host string, port int, topic string) <-chan string {
	t.Helper()

	received := make(chan string, 1)

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", host, port)).
		SetClientID("integration-subscriber").
		SetConnectTimeout(10 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	require.True(t, token.WaitTimeout(10*time.Second))
	require.NoError(t, token.Error())
	t.Cleanup(func() { client.Disconnect(100) })

	sub := client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		received <- string(msg.Payload())
	})
	require.True(t, sub.WaitTimeout(10*time.Second))
	require.NoError(t, sub.Error())

	return received
}

func TestRelayPublishesToBroker(t *testing.T) {
	host, port := setupBroker(t)
	received := subscribe(t, host, port, "hub/led")

	// The broker allows anonymous access and ignores credentials, so any
	// non-empty values satisfy the resolver.
	store := secrets.Static{
		"/iot/mqtt/broker":     host,
		"/iot/mqtt/username:1": "iothub",
		"/iot/mqtt/password:1": "integration",
	}
	relay := &service.RelayService{
		Secrets:   store,
		Publisher: &mqtt.PahoPublisher{Port: port, DisableTLS: true},
		Names: service.SecretNames{
			BrokerHost: "/iot/mqtt/broker",
			Username:   "/iot/mqtt/username:1",
			Password:   "/iot/mqtt/password:1",
		},
	}

	published, err := relay.Relay(context.Background(), service.CommandRequest{
		Topic:   "hub/led",
		Message: "ON",
	})
	require.NoError(t, err)
	require.Equal(t, "hub/led", published.Topic)
	require.Equal(t, "ON", published.Message)

	select {
	case payload := <-received:
		require.Equal(t, "ON", payload)
	case <-time.After(10 * time.Second):
		t.Fatal("message never arrived at the subscriber")
	}
}

func TestRelayConnectFailure(t *testing.T) {
	store := secrets.Static{
		"broker":   "127.0.0.1",
		"username": "iothub",
		"password": "integration",
	}
	relay := &service.RelayService{
		Secrets: store,
		// Nothing listens on this port.
		Publisher: &mqtt.PahoPublisher{Port: 1, DisableTLS: true, AckTimeout: 2 * time.Second},
		Names:     service.SecretNames{BrokerHost: "broker", Username: "username", Password: "password"},
	}

	_, err := relay.Relay(context.Background(), service.CommandRequest{Topic: "hub/led", Message: "ON"})
	require.ErrorIs(t, err, mqtt.ErrConnectFailed)
}
