// Package config loads, normalizes, and validates shelver configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and TELEGRAM_BOT_TOKEN. The Config type centralizes the lock
// names and TTLs, the library layout, the title table location, and external
// service credentials so the CLI discovers them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
