// Package sensor defines the biometric capabilities polled by the
// authentication engine and their shared Verdict type.
//
// Two capabilities ship with Wardgate:
//
//   - Face: captures a frame, computes an encoding, and matches it
//     against every enrolled face template by Euclidean distance. The
//     decision of who matched is made here, in software.
//   - Fingerprint: the sensor hardware performs matching against its
//     onboard template storage and reports a slot number; the capability
//     only resolves the slot back to an identity.
//
// Both produce a Verdict: matched (identity + confidence), unmatched
// (a person was read but nobody matched), or failed (hardware error or
// timeout). A Poll never blocks past its context deadline.
//
// Simulated implementations live in sim.go and produce verdicts through
// the exact same type, so the engine cannot tell fixtures from hardware.
package sensor
