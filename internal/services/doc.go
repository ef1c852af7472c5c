// Package services defines shared utilities consumed by the HTTP client, the
// task monitor, and the panels.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, panel names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so submission errors,
//     poll failures, timeouts, and unauthorized responses stay distinguishable
//     all the way up to the CLI.
//
// Use these helpers when wiring new calls so error classification and log
// fields stay uniform.
package services
