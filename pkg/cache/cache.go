// Package cache provides pluggable storage for computed layouts and
// rendered artifacts.
//
// Layout engines are deterministic, so a layout result is a pure function of
// its input and can be reused across runs, processes and server instances.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON files under a directory, used by the CLI
//   - [RedisCache]: shared cache for server deployments
//
// # Keys
//
// A [Keyer] derives keys from content hashes and options; [ScopedKeyer]
// prefixes keys for namespace isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// LayoutKeyOpts are the options that influence a layout result besides the
// engine input itself.
type LayoutKeyOpts struct {
	Engine string `json:"engine"`
}

// ArtifactKeyOpts are the options that influence a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key for a layout result of the input with the
	// given content hash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for an artifact rendered from the
	// document with the given content hash.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
