// Package keystore holds the API key attached to every backend request.
//
// A Store is injected into the HTTP client at construction; nothing in twix
// reads the key from package-level state. FileStore persists the key as JSON
// with 0600 permissions and serializes concurrent twix processes with an
// advisory file lock. MemoryStore keeps the key in process for tests and for
// one-shot --api-key overrides.
package keystore
