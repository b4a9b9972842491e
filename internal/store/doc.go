// Package store persists shelver's tasks, policy documents, and cooperative
// locks in a single SQLite database.
//
// Three tables back three concerns:
//
//   - locks: named, tokenized, time-bounded claims. AcquireLock checks for a
//     held row and inserts a new one inside one BEGIN IMMEDIATE transaction,
//     which turns independent process invocations into a serialized sequence
//     per lock name. A held row past its TTL is a stuck lock; it is reported
//     as ErrLockStuck and never reclaimed here.
//   - task: the FIFO work queue. Tasks move Pending -> Doing -> Done, with
//     Cancelled as an administrative terminal state; they never regress and
//     every status write strictly increases updated_at.
//   - cfg: append-only policy documents keyed by (content id, season) whose
//     category_mapping routes a task's category to a library root.
//
// Conditions callers branch on (held lock, empty queue, missing cfg) are
// returned as sentinel or typed errors so the decision is visible at the call
// site. Driver and I/O failures are wrapped with operation context only.
//
// Schema changes bump the version in schema.go.
package store
