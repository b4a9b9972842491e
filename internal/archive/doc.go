// Package archive runs the relocation workflow for one queued download per
// invocation.
//
// RunOnce walks a fixed sequence of stages (acquire_lock, select_task,
// mark_doing, resolve_policy, relocate, scrape, mark_done, release_lock) under
// the cooperative archive lock. Expected conditions, a live lock held by
// another invocation or an empty queue, come back as an Outcome with a nil
// error. Anything else aborts the run, leaves the lock held and the task in
// Doing, and is reported through the notifier; the next invocation then sees
// the lock as stuck until an operator releases it.
//
// CreateCfg and Enqueue are the other two entry points. CreateCfg shares the
// locking rules under its own lock name.
package archive
