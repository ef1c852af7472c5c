// Package config loads, normalizes, and validates twix configuration data.
//
// It supplies defaults for the scraper backend connection, expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// fallbacks such as TWIX_API_URL and TWIX_API_KEY. The Config type gathers the
// knobs the CLI needs so the HTTP client, task monitor, and dashboard views are
// configured in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
