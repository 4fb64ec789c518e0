// Package admin manages dashboard administrator accounts and sessions.
//
// Admins authenticate with username and password (Argon2id hashes) and
// receive a short-lived JWT for subsequent API calls. Admin accounts
// are entirely separate from door identities: an admin cannot open the
// door and an enrolled identity cannot read the audit trail.
package admin
