// Package services defines shared utilities consumed by the archive run and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, stage names, and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that annotate failures
//     with the stage and operation that produced them.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error classification, observability) stays uniform across the run.
package services
