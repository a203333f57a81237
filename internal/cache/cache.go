// Package cache stores extraction results keyed by a fingerprint of the
// document bytes and the extraction schema.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jackzampolin/pdfx/internal/schema"
)

// Key is the fingerprint "<sha256(doc)>:<sha256(canonical schema)>".
type Key string

// KeyFor computes the cache key for a document and schema.
func KeyFor(doc []byte, s schema.Schema) Key {
	docSum := sha256.Sum256(doc)
	schemaSum := sha256.Sum256(s.Canonical())
	return Key(hex.EncodeToString(docSum[:]) + ":" + hex.EncodeToString(schemaSum[:]))
}

// Failure records why a stored result carries no data.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Entry is a stored extraction result. Entries are never mutated after
// Store; Lookup returns a copy.
type Entry struct {
	Data           schema.Values `json:"extracted_data"`
	Cost           float64       `json:"cost"`
	Model          string        `json:"model,omitempty"`
	InputTokens    int           `json:"input_tokens,omitempty"`
	OutputTokens   int           `json:"output_tokens,omitempty"`
	Failure        *Failure      `json:"failure,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (e Entry) clone() Entry {
	e.Data = e.Data.Clone()
	if e.Failure != nil {
		f := *e.Failure
		e.Failure = &f
	}
	return e
}

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds the cache with least-recently-used eviction.
	// Zero or negative means unbounded.
	MaxEntries int
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

// Cache is an in-memory, process-lifetime result store. Safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[Key]Entry
	bounded    *lru.Cache[Key, Entry]
	maxEntries int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache. An unbounded map backs it unless opts.MaxEntries > 0.
func New(opts Options) (*Cache, error) {
	c := &Cache{maxEntries: opts.MaxEntries}
	if opts.MaxEntries <= 0 {
		c.entries = make(map[Key]Entry)
		return c, nil
	}

	bounded, err := lru.NewWithEvict(opts.MaxEntries, func(Key, Entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bounded cache: %w", err)
	}
	c.bounded = bounded
	return c, nil
}

// NewUnbounded returns a cache with no capacity limit.
func NewUnbounded() *Cache {
	c, _ := New(Options{})
	return c
}

// Lookup returns the entry stored for (doc, s), if any.
func (c *Cache) Lookup(doc []byte, s schema.Schema) (Entry, bool) {
	return c.Get(KeyFor(doc, s))
}

// Store saves an entry for (doc, s), replacing any existing entry.
func (c *Cache) Store(doc []byte, s schema.Schema, e Entry) {
	c.Put(KeyFor(doc, s), e)
}

// Get returns the entry for a precomputed key.
func (c *Cache) Get(key Key) (Entry, bool) {
	var (
		e  Entry
		ok bool
	)
	if c.bounded != nil {
		e, ok = c.bounded.Get(key)
	} else {
		c.mu.RLock()
		e, ok = c.entries[key]
		c.mu.RUnlock()
	}

	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return e.clone(), true
}

// Put stores an entry under a precomputed key. Last writer wins.
func (c *Cache) Put(key Key, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e = e.clone()

	if c.bounded != nil {
		c.bounded.Add(key, e)
		return
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Clear removes every entry. Counters are kept.
func (c *Cache) Clear() {
	if c.bounded != nil {
		// Purge fires the eviction callback; those are not capacity evictions.
		before := c.evictions.Load()
		c.bounded.Purge()
		c.evictions.Store(before)
		return
	}
	c.mu.Lock()
	c.entries = make(map[Key]Entry)
	c.mu.Unlock()
}

// Size returns the number of stored entries.
func (c *Cache) Size() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:    c.Size(),
		MaxEntries: c.maxEntries,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
	}
}
