package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/o2v/core/routing"
)

// MockNotifier records notifications in memory. Used in tests.
type MockNotifier struct {
	mu       sync.Mutex
	Sent     []routing.Notification
	FailKind routing.NotificationKind
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the notification or fails if its kind is configured to fail.
func (m *MockNotifier) Notify(ctx context.Context, msg routing.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailKind != "" && msg.Kind == m.FailKind {
		return fmt.Errorf("notify failed")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// ByKind returns the recorded notifications of the given kind.
func (m *MockNotifier) ByKind(kind routing.NotificationKind) []routing.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []routing.Notification
	for _, n := range m.Sent {
		if n.Kind == kind {
			res = append(res, n)
		}
	}
	return res
}
