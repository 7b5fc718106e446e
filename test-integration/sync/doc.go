// Package integration provides integration tests for the kurum-sync agent.
// These tests run complete agents against a shared local storage backend and
// validate backup on process exit, restore on newer remote copies, init task
// suspension and reactivation, and the status server.
package integration
