// Package main hosts the shelver CLI.
//
// Every command opens the SQLite store directly; there is no daemon. `run`
// performs one unit of archive work and exits, so an external trigger (cron,
// a systemd timer, or `shelver schedule`) decides how often work happens.
// Operator commands under `queue` and `locks` inspect state and clear stuck
// locks, which the archive run never reclaims on its own.
package main
