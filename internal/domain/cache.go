package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for the classification cache backing
// store. Implementations are the adapters (redis, sqlite). Entries are never
// evicted automatically; Delete is the only way an entry disappears.
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one
	// exists. The write is durable before Set returns. expiration 0 means
	// the item is kept indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes an item from the cache.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache backend.
	Ping(ctx context.Context) error
}

// CacheEntry is the persisted classification for one question identifier.
// An entry is written only after a structurally valid classifier response.
type CacheEntry struct {
	Domain        string    `json:"domain"`
	Subdomain     string    `json:"subdomain"`
	IsCalculation bool      `json:"is_calculation"`
	Reason        string    `json:"reason,omitempty"`
	ClassifiedAt  time.Time `json:"classified_at"`
}

// Encode serializes the entry for storage.
func (e *CacheEntry) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeCacheEntry parses a stored entry. Entries missing domain or subdomain
// are structurally invalid and rejected.
func DecodeCacheEntry(raw string) (*CacheEntry, error) {
	var e CacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, NewInternalError("malformed cache entry", err)
	}
	if e.Domain == "" || e.Subdomain == "" {
		return nil, NewInvalidInputError("cache entry missing domain or subdomain")
	}
	return &e, nil
}
