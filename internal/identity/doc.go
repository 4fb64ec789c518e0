// Package identity manages enrolled people and their biometric templates.
//
// An Identity is a person authorised (or formerly authorised) to use the
// door. Each identity carries zero or more face templates (128-dimension
// encodings) and fingerprint templates (slots in the sensor's onboard
// flash). Templates store an integrity hash so tampering with the
// database is detectable at load time.
//
// The package provides two layers:
//
//   - Repository: direct SQLite persistence
//   - Store: read-mostly cached view used by the authentication engine,
//     safe for concurrent use
//
// The engine only ever reads through the Store; enrollment and the admin
// API write through it so the cache never goes stale.
package identity
