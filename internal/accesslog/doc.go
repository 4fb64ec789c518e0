// Package accesslog is the append-only audit trail of authentication
// attempts.
//
// Every completed attempt produces exactly one Entry, whatever its
// outcome. Entries are never updated or deleted by the application;
// the dashboard reads them, the engine writes them, and nothing else
// touches the table.
//
// The Recorder sits between the engine and the repository: it retries
// transient write failures a bounded number of times and, when the
// trail cannot be written, drops the entry and raises an operational
// alert rather than blocking the door.
package accesslog
