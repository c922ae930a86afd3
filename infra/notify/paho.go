// Package notify delivers routing notifications over MQTT and feeds vendor
// responses back to the engine.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
	"github.com/kilianp07/o2v/infra/logger"
)

// VendorResponse is an acknowledgement received on the response topic.
type VendorResponse struct {
	OrderID  string         `json:"order_id"`
	VendorID string         `json:"vendor_id"`
	Decision model.Decision `json:"decision"`
	Reason   string         `json:"reason,omitempty"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoNotifier implements routing.Notifier over Eclipse Paho. Vendor
// assignments publish to <prefix>/vendor/<id>/assignments, administrator
// alerts to <prefix>/admin/alerts.
type PahoNotifier struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger

	mu      sync.Mutex
	handler func(VendorResponse)

	maxRetries int
	backoff    time.Duration
}

// NewPahoNotifier connects to the broker and subscribes to the vendor
// response topic.
func NewPahoNotifier(cfg Config) (*PahoNotifier, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	log := logger.New("mqtt_notifier")
	n := &PahoNotifier{
		cfg:        cfg,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := cfg.QoS["response"]; ok {
			qos = q
		}
		if token := c.Subscribe(cfg.ResponseTopic, qos, n.onResponse); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	}

	n.cli = newMQTTClient(opts)
	if token := n.cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return n, nil
}

// OnResponse registers the handler invoked for every decoded vendor response.
func (n *PahoNotifier) OnResponse(handler func(VendorResponse)) {
	n.mu.Lock()
	n.handler = handler
	n.mu.Unlock()
}

func (n *PahoNotifier) onResponse(_ paho.Client, msg paho.Message) {
	var resp VendorResponse
	if err := json.Unmarshal(msg.Payload(), &resp); err != nil {
		n.logger.Errorf("failed to decode vendor response: %v", err)
		return
	}
	n.mu.Lock()
	handler := n.handler
	n.mu.Unlock()
	if handler != nil {
		handler(resp)
	}
}

// Notify publishes the notification to its audience topic, retrying with
// exponential backoff on publish failure.
func (n *PahoNotifier) Notify(ctx context.Context, msg routing.Notification) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := n.topicFor(msg)
	qos := byte(0)
	if q, ok := n.cfg.QoS["notify"]; ok {
		qos = q
	}
	maxRetries := n.maxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := n.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		token := n.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.logger.Infof("sent %s for order %s to %s", msg.Kind, msg.OrderID, topic)
			return nil
		}
		n.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(1<<attempt)):
		}
	}
	return publishErr
}

func (n *PahoNotifier) topicFor(msg routing.Notification) string {
	if msg.Kind == routing.NotifyVendorAssignment {
		return fmt.Sprintf("%s/vendor/%s/assignments", n.cfg.TopicPrefix, msg.VendorID)
	}
	return n.cfg.TopicPrefix + "/admin/alerts"
}

// Disconnect gracefully closes the MQTT connection.
func (n *PahoNotifier) Disconnect() {
	n.cli.Disconnect(250)
}
