// Package titles loads the title table that drives relocation dispatch.
//
// The table lives outside the binary as TOML ([[title]] entries) or YAML (a
// titles: list). Each entry names a content identity and the filename pattern
// selecting its episodes; Register turns the entries into relocate handlers.
package titles
