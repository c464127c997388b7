// Package mqttclient wraps the paho client with auto-reconnect, multi-topic
// subscription and a single pluggable message handler.
package mqttclient

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type MessageHandler func(topic string, payload []byte)

type Client struct {
	conn      mqtt.Client
	topics    []string
	connected atomic.Bool
	log       zerolog.Logger
	handler   atomic.Pointer[MessageHandler]
}

type Options struct {
	BrokerURL string
	ClientID  string
	Topics    string // comma separated filters
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect dials the broker and blocks until the initial connection attempt
// settles. Subscriptions are re-established on every reconnect.
func Connect(opts Options) (*Client, error) {
	c := &Client{
		topics: parseTopics(opts.Topics),
		log:    opts.Log.With().Str("component", "mqtt").Logger(),
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return c, nil
}

// SetMessageHandler installs the handler for inbound messages. Messages that
// arrive without a handler installed are dropped with a debug log.
func (c *Client) SetMessageHandler(h MessageHandler) {
	c.handler.Store(&h)
}

func (c *Client) onConnect(client mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Strs("topics", c.topics).Msg("mqtt connected, subscribing")

	for _, topic := range c.topics {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			c.dispatch(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error().Err(err).Str("topic", topic).Msg("mqtt subscribe failed")
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

func (c *Client) dispatch(topic string, payload []byte) {
	if h := c.handler.Load(); h != nil {
		(*h)(topic, payload)
		return
	}
	c.log.Debug().
		Str("topic", topic).
		Int("payload_size", len(payload)).
		Msg("mqtt message dropped, no handler installed")
}

// Publish sends a message at QoS 0. Used to echo per-segment results back to
// the broker for downstream consumers.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.conn.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}

func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return []string{"lt/#"}
	}
	return topics
}
