// Package notifications delivers archive events to ntfy and Telegram.
//
// NewService enables each transport that has configuration and fans every
// published event out to all of them, degrading to a no-op when none is
// configured. Events render to a title, body, tags and priority once; each
// transport maps that onto its own wire format. Telegram messages longer than
// the API limit are split into several sends.
package notifications
