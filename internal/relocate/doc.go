// Package relocate dispatches a task's content to its file-selection policy and
// hard-links the selected files into the library.
//
// The Registry maps case-insensitive "content-{id}-s{season}" keys to Handlers.
// It is built once at startup from the title table and frozen; an unmatched key
// with no default handler fails with *UnknownKeyError listing the known keys.
//
// Relocate is the linking primitive behind every handler. Destination entries
// share the source's inode, so the inbox and the library hold one copy of each
// file. Directory sources are flattened into the destination.
package relocate
