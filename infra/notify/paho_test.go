package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
	"github.com/kilianp07/o2v/infra/logger"
)

type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool                       { return true }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *mockToken) Error() error                     { return t.err }
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type mockPahoClient struct {
	mu           sync.Mutex
	published    []publishedMsg
	publishErrs  int
	subscribed   []string
	disconnected bool
}

type publishedMsg struct {
	topic   string
	payload []byte
}

func (m *mockPahoClient) IsConnected() bool { return true }
func (m *mockPahoClient) Connect() paho.Token {
	return &mockToken{}
}
func (m *mockPahoClient) Disconnect(quiesce uint) {
	m.mu.Lock()
	m.disconnected = true
	m.mu.Unlock()
}
func (m *mockPahoClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErrs > 0 {
		m.publishErrs--
		return &mockToken{err: errors.New("broker unavailable")}
	}
	m.published = append(m.published, publishedMsg{topic: topic, payload: payload.([]byte)})
	return &mockToken{}
}
func (m *mockPahoClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	m.mu.Lock()
	m.subscribed = append(m.subscribed, topic)
	m.mu.Unlock()
	return &mockToken{}
}

func newTestNotifier(t *testing.T, mc *mockPahoClient) *PahoNotifier {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return mc }
	t.Cleanup(func() { newMQTTClient = orig })

	n, err := NewPahoNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return n
}

func TestNotifyPublishesToVendorTopic(t *testing.T) {
	mc := &mockPahoClient{}
	n := newTestNotifier(t, mc)

	err := n.Notify(context.Background(), routing.Notification{
		Kind:          routing.NotifyVendorAssignment,
		OrderID:       "order-1",
		VendorID:      "v1",
		AttemptNumber: 1,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("published %d messages", len(mc.published))
	}
	if got, want := mc.published[0].topic, "fulfillment/vendor/v1/assignments"; got != want {
		t.Errorf("topic = %s, want %s", got, want)
	}
}

func TestNotifyAdminTopic(t *testing.T) {
	mc := &mockPahoClient{}
	n := newTestNotifier(t, mc)

	err := n.Notify(context.Background(), routing.Notification{
		Kind:           routing.NotifyAdminEscalation,
		OrderID:        "order-1",
		Reason:         "NO_VENDOR_AVAILABLE",
		RequiresAction: true,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got, want := mc.published[0].topic, "fulfillment/admin/alerts"; got != want {
		t.Errorf("topic = %s, want %s", got, want)
	}
}

func TestNotifyRetriesOnPublishFailure(t *testing.T) {
	mc := &mockPahoClient{publishErrs: 2}
	n := newTestNotifier(t, mc)

	err := n.Notify(context.Background(), routing.Notification{
		Kind:     routing.NotifyVendorAssignment,
		OrderID:  "order-1",
		VendorID: "v1",
	})
	if err != nil {
		t.Fatalf("notify should succeed after retries: %v", err)
	}
	if len(mc.published) != 1 {
		t.Errorf("published %d messages after retry", len(mc.published))
	}
}

func TestNotifyGivesUpAfterMaxRetries(t *testing.T) {
	mc := &mockPahoClient{publishErrs: 10}
	n := newTestNotifier(t, mc)

	err := n.Notify(context.Background(), routing.Notification{
		Kind:     routing.NotifyVendorAssignment,
		OrderID:  "order-1",
		VendorID: "v1",
	})
	if err == nil {
		t.Fatal("expected publish error")
	}
}

func TestOnResponseDecodesPayload(t *testing.T) {
	n := &PahoNotifier{logger: logger.NopLogger{}}
	var got VendorResponse
	n.OnResponse(func(resp VendorResponse) { got = resp })

	n.onResponse(nil, fakeMessage{payload: []byte(`{"order_id":"order-1","vendor_id":"v1","decision":"ACCEPT"}`)})
	if got.OrderID != "order-1" || got.VendorID != "v1" || got.Decision != model.DecisionAccept {
		t.Errorf("decoded = %+v", got)
	}

	// malformed payloads are dropped, not delivered
	got = VendorResponse{}
	n.onResponse(nil, fakeMessage{payload: []byte(`not json`)})
	if got.OrderID != "" {
		t.Errorf("malformed payload delivered: %+v", got)
	}
}

func TestDisconnect(t *testing.T) {
	mc := &mockPahoClient{}
	n := newTestNotifier(t, mc)
	n.Disconnect()
	if !mc.disconnected {
		t.Error("expected Disconnect() to be called")
	}
}

type fakeMessage struct {
	payload []byte
}

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 0 }
func (fakeMessage) Retained() bool    { return false }
func (fakeMessage) Topic() string     { return "fulfillment/vendor/v1/response" }
func (fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (fakeMessage) Ack()              {}
