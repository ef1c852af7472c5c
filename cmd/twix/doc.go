// Package main hosts the twix CLI entrypoint and command graph.
//
// Each command group stands in for one dashboard panel: credential
// management, scraper login, user search, timelines, followers and following,
// task inspection, and system health. Commands that start backend jobs submit
// through the API client, then follow the returned task id with a monitor
// session until it resolves, fails, times out, or the operator presses Ctrl-C.
//
// Keep this package thin: behaviour belongs in the internal packages and the
// commands here only parse flags, wire dependencies, and render output.
package main
