// Package notify contains the delivery side of the notification
// contract: the MQTT push-gateway adapter, a mock for tests and the bus
// worker that turns NotificationRequested events into deliveries.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oficiosya/dispatch/core/notify"
	"github.com/oficiosya/dispatch/infra/logger"
)

// publishTimeout bounds a single publish, including the broker ack.
const publishTimeout = 5 * time.Second

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// message is the wire payload consumed by the multi-channel push
// gateway, which fans it out to push, email, SMS and in-app channels.
type message struct {
	ProfessionalID string            `json:"professional_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	SentAt         time.Time         `json:"sent_at"`
}

// MQTTNotifier publishes notifications to the push gateway over MQTT.
type MQTTNotifier struct {
	cli    pahoClient
	prefix string
	qos    byte
	log    logger.Logger
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg Config) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	log := logger.New("notify-mqtt")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect notification broker: %w", token.Error())
	}
	return &MQTTNotifier{cli: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// Notify publishes the message on the professional's notification topic.
func (n *MQTTNotifier) Notify(_ context.Context, professionalID, title, body string, metadata map[string]string) error {
	payload, err := json.Marshal(message{
		ProfessionalID: professionalID,
		Title:          title,
		Body:           body,
		Metadata:       metadata,
		SentAt:         time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	topic := fmt.Sprintf("%s/professionals/%s/notifications", n.prefix, professionalID)
	token := n.cli.Publish(topic, n.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout: %w", topic, notify.ErrDeliveryFailed)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %v: %w", topic, token.Error(), notify.ErrDeliveryFailed)
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.cli.Disconnect(250)
}
