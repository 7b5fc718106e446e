// Package sync contains the polling state machine that keeps local
// application data and remote storage in step.
//
// # Orchestrator
//
// An Orchestrator owns a syncconfig.Set for the lifetime of the process and
// is driven by repeated calls to Poll from a single goroutine (see the
// coordinator subpackage). One tick runs three checks in order:
//
//   - checkConfigInit suspends every active config that still misses a
//     required init task answer and notifies the event handler once
//   - checkBackup diffs the running process names against the previous tick
//     and backs up every active config watching a process that exited. A
//     config watching several processes that exited in the same tick is
//     backed up once
//   - checkRestore compares local and remote markers and restores every
//     active config whose remote copy is newer
//
// A tick is a no-op while the storage backend is not authorized. Failures of
// one config never stop the evaluation of the next; Poll joins them into a
// single error for the caller to log.
//
// # Backup and Restore
//
// Backup packs every backup task into {temp}/backup/{key}/{task}.zip,
// uploads it to backups/{key}/{task}.zip and, once all tasks succeeded,
// stamps a fresh remote marker and copies it to the local marker store.
// Restore downloads each restore task archive and extracts it into the
// expanded destination, then copies the remote marker locally. Both are
// fail-fast: the first task error aborts the invocation without rollback.
//
// Progress is recorded in the state service when one is configured, so that
// the status API and CLI can report it.
package sync
