// Package config loads, normalizes, and validates bookscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// BOOKSCAN_STORE_PATH. The Config type centralizes the record store location,
// the lookup endpoint, and the camera tooling so the CLI resolves everything in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
