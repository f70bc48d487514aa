// Package mqtt publishes session telemetry to an MQTT broker. Telemetry
// is optional and publish-only: sessions announce lifecycle transitions,
// nothing in the pipeline depends on the broker being reachable.
package mqtt

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/config"
)

// Connection and publish timeouts.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second

	maxReconnectInterval = 2 * time.Minute
)

// Client wraps paho.mqtt.golang for mdofd telemetry.
//
// All methods are safe for concurrent use; sessions on different
// goroutines publish through one shared client.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Configures a Last Will marking the daemon offline
//  3. Enables auto-reconnect with capped backoff
//  4. Attempts the initial connection with a timeout
//  5. Publishes "online" to the system status topic
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrDisabled if telemetry is off; ErrConnectionFailed otherwise
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	c := &Client{
		cfg:    cfg,
		topics: Topics{Base: cfg.BaseTopic},
	}

	opts := buildClientOptions(cfg)
	opts.SetWill(c.topics.SystemStatus(), "offline", byte(cfg.QoS), true)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.setConnected(true)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, _ error) {
		c.setConnected(false)
	})

	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := c.Publish(c.topics.SystemStatus(), []byte("online"), true); err != nil {
		c.client.Disconnect(0)
		return nil, err
	}
	return c, nil
}

// buildClientOptions assembles paho options from the configuration.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	broker := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)

	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.Broker.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxReconnectInterval).
		SetCleanSession(true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	return opts
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// IsConnected reports whether the client currently has a broker
// connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Publish sends a payload to a topic at the configured QoS.
//
// Parameters:
//   - topic: Destination topic
//   - payload: Message payload
//   - retained: Whether the broker keeps the message for new subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrNotConnected or ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, byte(c.cfg.QoS), retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishStatus announces a session lifecycle transition. Implements
// session.StatusPublisher.
//
// Parameters:
//   - device: Device name
//   - state: Lifecycle state name ("opened", "running", ...)
func (c *Client) PublishStatus(device, state string) error {
	return c.Publish(c.topics.SessionStatus(device), []byte(state), true)
}

// Close publishes "offline" and disconnects cleanly.
func (c *Client) Close() {
	if c.IsConnected() {
		_ = c.Publish(c.topics.SystemStatus(), []byte("offline"), true)
	}
	c.client.Disconnect(uint(defaultPublishTimeout.Milliseconds()))
	c.setConnected(false)
}
