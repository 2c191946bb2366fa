// Package kvstore provides the persistent string key-value store used for the
// metadata cache and the relay settings, playing the role a browser's local
// storage plays for the web front-end.
package kvstore

import "time"

// Store is a string key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present. Expired
	// entries are reported as absent.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value. A ttl of zero
	// or less never expires.
	Set(key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
