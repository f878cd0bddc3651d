// Package services defines shared utilities consumed by the bookscan pipeline
// and its external integrations (scanner, overlay control, lookup API).
//
// Key responsibilities:
//   - Context helpers that stamp the run session ID, pipeline stage, camera
//     profile, and ISBN for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into exit statuses and operator hints.
//
// Use these helpers when wiring new pipeline steps so error classification and
// observability stay uniform.
package services
