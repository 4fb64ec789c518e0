// Package notify fans completed decisions, door transitions, and alerts
// out to the external surfaces: the MQTT broker, the WebSocket hub, and
// the InfluxDB telemetry store.
//
// Every sink is best-effort. A broker outage or a full client buffer
// must never delay or reverse an authentication decision, so publish
// failures are logged and dropped.
package notify

import (
	"encoding/json"
	"time"

	"github.com/wardgate/wardgate-core/internal/door"
	"github.com/wardgate/wardgate-core/internal/engine"
	"github.com/wardgate/wardgate-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the MQTT surface the dispatcher publishes to.
// The mqtt Client satisfies this.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Broadcaster is the WebSocket surface the dispatcher broadcasts to.
// The api Hub satisfies this.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Metrics is the telemetry surface the dispatcher writes to.
// The influxdb Client satisfies this.
type Metrics interface {
	WriteAttemptMetric(siteID, result string, confidence float64, pollLatency time.Duration)
	WriteDoorMetric(siteID, state string, actuatorOK bool)
}

// Dispatcher routes events to whichever sinks are configured. Nil sinks
// are skipped, so a deployment without a broker or without InfluxDB
// degrades to the surfaces it has.
//
// Dispatcher satisfies engine.AlertSink, engine.Notifier, and
// engine.Telemetry.
type Dispatcher struct {
	siteID  string
	topics  mqtt.Topics
	mqtt    Publisher
	hub     Broadcaster
	metrics Metrics
	logger  Logger
}

// New creates a dispatcher for a site. Any sink may be nil.
func New(siteID string) *Dispatcher {
	return &Dispatcher{
		siteID: siteID,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) { d.logger = logger }

// SetMQTT attaches the MQTT publisher.
func (d *Dispatcher) SetMQTT(p Publisher) { d.mqtt = p }

// SetHub attaches the WebSocket broadcaster.
func (d *Dispatcher) SetHub(b Broadcaster) { d.hub = b }

// SetMetrics attaches the telemetry writer.
func (d *Dispatcher) SetMetrics(m Metrics) { d.metrics = m }

// Alert publishes an operational alert (actuator fault, audit write
// failure, lockout trip) to the per-kind alert topic and the hub.
func (d *Dispatcher) Alert(kind, message string) {
	payload := map[string]string{
		"kind":        kind,
		"message":     message,
		"site_id":     d.siteID,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}

	d.publish(d.topics.Alert(d.siteID, kind), payload, false)

	if d.hub != nil {
		d.hub.Broadcast("alert", payload)
	}
}

// AttemptCompleted publishes a completed decision to the access attempt
// topic and the hub. Attempts are events, not state, so they are never
// retained.
func (d *Dispatcher) AttemptCompleted(decision engine.Decision) {
	d.publish(d.topics.AccessAttempt(d.siteID), decision, false)

	if d.hub != nil {
		d.hub.Broadcast("access.attempt", decision)
	}
}

// AttemptObserved records per-attempt telemetry.
func (d *Dispatcher) AttemptObserved(result string, confidence float64, pollLatency time.Duration) {
	if d.metrics != nil {
		d.metrics.WriteAttemptMetric(d.siteID, result, confidence, pollLatency)
	}
}

// DoorChanged publishes a door state snapshot. State topics are retained
// so dashboards reconnecting after an outage see the current state
// immediately. Wire this to the controller:
//
//	controller.SetOnChange(dispatcher.DoorChanged)
func (d *Dispatcher) DoorChanged(status door.Status) {
	d.publish(d.topics.DoorState(d.siteID), status, true)

	if d.hub != nil {
		d.hub.Broadcast("door.state_changed", status)
	}
	if d.metrics != nil {
		d.metrics.WriteDoorMetric(d.siteID, string(status.State), true)
	}
}

// publish marshals and sends one MQTT message, best-effort.
func (d *Dispatcher) publish(topic string, payload any, retained bool) {
	if d.mqtt == nil || !d.mqtt.IsConnected() {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("marshalling notification failed", "topic", topic, "error", err)
		return
	}

	if err := d.mqtt.Publish(topic, data, 1, retained); err != nil {
		d.logger.Warn("notification publish failed", "topic", topic, "error", err)
	}
}
