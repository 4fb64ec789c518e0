package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttemptMetric writes a single authentication attempt measurement.
//
// This is the primary method for recording attempt telemetry. Tags stay
// low-cardinality (site, result) while confidence and latency go into
// fields. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - siteID: Door installation identifier (e.g., "door-001")
//   - result: Attempt result ("GRANTED", "DENIED", "FAILED")
//   - confidence: Combined match confidence 0.0-1.0
//   - pollLatency: Wall-clock time the sensor polls took
//
// Example:
//
//	client.WriteAttemptMetric("door-001", "GRANTED", 0.92, 840*time.Millisecond)
func (c *Client) WriteAttemptMetric(siteID string, result string, confidence float64, pollLatency time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"access_attempts",
		map[string]string{
			"site_id": siteID,
			"result":  result,
		},
		map[string]interface{}{
			"confidence":      confidence,
			"poll_latency_ms": float64(pollLatency.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDoorMetric writes a door state transition measurement.
//
// Parameters:
//   - siteID: Door installation identifier
//   - state: Door state after the transition ("LOCKED", "UNLOCKED")
//   - actuatorOK: Whether the physical actuation succeeded
func (c *Client) WriteDoorMetric(siteID string, state string, actuatorOK bool) {
	if !c.IsConnected() {
		return
	}

	ok := 0.0
	if actuatorOK {
		ok = 1.0
	}

	point := write.NewPoint(
		"door_state",
		map[string]string{
			"site_id": siteID,
			"state":   state,
		},
		map[string]interface{}{
			"actuator_ok": ok,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "door-001"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
