package mqtt

import "fmt"

// Topic prefixes for Wardgate MQTT traffic.
//
// All topics live under the wardgate/ root so that a shared site broker
// can route door traffic with a single ACL entry.
const (
	// TopicPrefix is the base for all Wardgate topics.
	TopicPrefix = "wardgate"

	// TopicPrefixSystem is the base for system lifecycle topics.
	TopicPrefixSystem = "wardgate/system"
)

// Topics provides builders for Wardgate MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DoorState("door-001")
//	// Returns: "wardgate/door-001/door/state"
type Topics struct{}

// DoorState returns the topic for door lock state updates.
// Published retained so new subscribers see the current state.
//
// Example: wardgate/door-001/door/state
func (Topics) DoorState(siteID string) string {
	return fmt.Sprintf("%s/%s/door/state", TopicPrefix, siteID)
}

// AccessAttempt returns the topic for completed authentication attempts.
//
// Example: wardgate/door-001/access/attempt
func (Topics) AccessAttempt(siteID string) string {
	return fmt.Sprintf("%s/%s/access/attempt", TopicPrefix, siteID)
}

// Alert returns the topic for operational alerts (actuator faults,
// audit write failures, sensor disconnects).
//
// Example: wardgate/door-001/alert/actuator_fault
func (Topics) Alert(siteID, kind string) string {
	return fmt.Sprintf("%s/%s/alert/%s", TopicPrefix, siteID, kind)
}

// SystemStatus returns the system status topic used for online/offline
// presence, including the Last Will message.
//
// Example: wardgate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllAlerts returns a pattern matching every alert for a site.
//
// Pattern: wardgate/door-001/alert/+
func (Topics) AllAlerts(siteID string) string {
	return fmt.Sprintf("%s/%s/alert/+", TopicPrefix, siteID)
}

// AllSites returns a pattern matching all Wardgate traffic.
// Use with caution - this receives ALL traffic.
//
// Pattern: wardgate/#
func (Topics) AllSites() string {
	return "wardgate/#"
}
