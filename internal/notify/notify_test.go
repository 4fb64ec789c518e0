package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/wardgate/wardgate-core/internal/door"
	"github.com/wardgate/wardgate-core/internal/engine"
)

// mockPublisher records published MQTT messages.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	messages  []publishedMessage
}

type publishedMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (m *mockPublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, publishedMessage{topic: topic, payload: payload, retained: retained})
	return nil
}

func (m *mockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPublisher) published() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// mockBroadcaster records hub broadcasts.
type mockBroadcaster struct {
	mu       sync.Mutex
	channels []string
}

func (m *mockBroadcaster) Broadcast(channel string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel)
}

// mockMetrics records telemetry writes.
type mockMetrics struct {
	mu       sync.Mutex
	attempts int
	doors    int
}

func (m *mockMetrics) WriteAttemptMetric(string, string, float64, time.Duration) {
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()
}

func (m *mockMetrics) WriteDoorMetric(string, string, bool) {
	m.mu.Lock()
	m.doors++
	m.mu.Unlock()
}

func TestAttemptCompleted(t *testing.T) {
	pub := &mockPublisher{connected: true}
	hub := &mockBroadcaster{}

	d := New("door-001")
	d.SetMQTT(pub)
	d.SetHub(hub)

	d.AttemptCompleted(engine.Decision{Outcome: engine.OutcomeGranted, IdentityID: "idn-alice"})

	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "wardgate/door-001/access/attempt" {
		t.Errorf("topic = %q, want wardgate/door-001/access/attempt", msgs[0].topic)
	}
	if msgs[0].retained {
		t.Error("attempt events must not be retained")
	}

	if len(hub.channels) != 1 || hub.channels[0] != "access.attempt" {
		t.Errorf("hub channels = %v, want [access.attempt]", hub.channels)
	}
}

func TestDoorChanged(t *testing.T) {
	pub := &mockPublisher{connected: true}
	metrics := &mockMetrics{}

	d := New("door-001")
	d.SetMQTT(pub)
	d.SetMetrics(metrics)

	d.DoorChanged(door.Status{State: door.StateUnlocked, GrantedTo: "idn-alice"})

	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "wardgate/door-001/door/state" {
		t.Errorf("topic = %q, want wardgate/door-001/door/state", msgs[0].topic)
	}
	if !msgs[0].retained {
		t.Error("door state must be retained")
	}
	if metrics.doors != 1 {
		t.Errorf("door metrics = %d, want 1", metrics.doors)
	}
}

func TestAlertTopicPerKind(t *testing.T) {
	pub := &mockPublisher{connected: true}

	d := New("door-001")
	d.SetMQTT(pub)

	d.Alert("actuator_fault", "relay did not respond")

	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "wardgate/door-001/alert/actuator_fault" {
		t.Errorf("topic = %q, want wardgate/door-001/alert/actuator_fault", msgs[0].topic)
	}
}

func TestDisconnectedBrokerIsSkipped(t *testing.T) {
	pub := &mockPublisher{connected: false}

	d := New("door-001")
	d.SetMQTT(pub)

	d.Alert("lockout", "threshold reached")
	d.AttemptCompleted(engine.Decision{Outcome: engine.OutcomeDenied})

	if msgs := pub.published(); len(msgs) != 0 {
		t.Errorf("published %d messages while disconnected, want 0", len(msgs))
	}
}

func TestNilSinksAreSafe(t *testing.T) {
	d := New("door-001")

	// No sinks attached; none of these should panic.
	d.Alert("lockout", "threshold reached")
	d.AttemptCompleted(engine.Decision{Outcome: engine.OutcomeGranted})
	d.AttemptObserved("GRANTED", 0.9, time.Second)
	d.DoorChanged(door.Status{State: door.StateLocked})
}
