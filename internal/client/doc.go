// Package client is the HTTP adapter for the scraper backend.
//
// Client wraps a resty client configured with the backend base URL, request
// timeout, and user agent. Request middleware attaches the X-API-Key header from
// the injected keystore.Store, stamps an X-Request-ID, and waits on an optional
// rate limiter. Response middleware records metrics and, on 401, clears the
// stored key and invokes the unauthorized hook before the caller sees
// services.ErrUnauthorized.
//
// Job submission callers (Login, SearchUsers, UserTimeline, UserFollowers,
// UserFollowing) issue exactly one request and return the accepted task ID.
// They never retry; any transport or non-2xx failure is returned immediately
// and tagged with services.ErrSubmission.
package client
