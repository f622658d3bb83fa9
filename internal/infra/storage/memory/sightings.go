// Package memory provides in-process storage backed by go-cache.
package memory

import (
	"sync"
	"time"

	"github.com/gabapcia/hosewatch/internal/addresswatch"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL bounds how long an unsettled transaction is remembered.
	DefaultTTL = 24 * time.Hour

	// DefaultCapacity bounds how many unsettled transactions are remembered.
	DefaultCapacity = 10_000
)

// SightingStore is an addresswatch.SightingStore with per-entry expiration and
// an optional capacity. When full, the entry closest to expiring is evicted to
// make room for a new txid.
type SightingStore struct {
	mu       sync.Mutex
	cache    *cache.Cache
	ttl      time.Duration
	capacity int

	// writes lists bounded-store writes oldest first. Every write refreshes
	// the entry's expiration, so the first live write expires first. A write
	// is live while its seq matches latest for its txid.
	writes []write
	latest map[string]uint64
	seq    uint64
}

type write struct {
	txid string
	seq  uint64
}

var _ addresswatch.SightingStore = (*SightingStore)(nil)

func (s *SightingStore) Sightings(txid string) (int, bool) {
	v, found := s.cache.Get(txid)
	if !found {
		return 0, false
	}

	count, ok := v.(int)
	return count, ok
}

// SetSightings stores count for txid and refreshes its expiration.
func (s *SightingStore) SetSightings(txid string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity <= 0 {
		s.cache.Set(txid, count, s.ttl)
		return
	}

	if _, found := s.cache.Get(txid); !found {
		s.evictOldest()
	}

	s.cache.Set(txid, count, s.ttl)
	s.track(txid)
}

func (s *SightingStore) Forget(txid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(txid)
	delete(s.latest, txid)
}

// Len returns the number of entries, expired ones not yet cleaned up included.
func (s *SightingStore) Len() int {
	return s.cache.ItemCount()
}

// evictOldest drops entries in expiration order until there is room for one
// more. Expired entries still held by the cache are dropped first.
func (s *SightingStore) evictOldest() {
	for len(s.writes) > 0 && s.cache.ItemCount() >= s.capacity {
		w := s.writes[0]
		s.writes = s.writes[1:]

		if s.latest[w.txid] != w.seq {
			continue
		}

		delete(s.latest, w.txid)
		s.cache.Delete(w.txid)
	}
}

func (s *SightingStore) track(txid string) {
	s.seq++
	s.latest[txid] = s.seq
	s.writes = append(s.writes, write{txid: txid, seq: s.seq})

	if len(s.writes) > 2*s.capacity {
		s.compact()
	}
}

// compact drops stale writes and the writes of expired or purged entries. At
// most capacity writes survive.
func (s *SightingStore) compact() {
	live := make([]write, 0, s.capacity)
	for _, w := range s.writes {
		if s.latest[w.txid] != w.seq {
			continue
		}

		if _, found := s.cache.Get(w.txid); !found {
			delete(s.latest, w.txid)
			continue
		}

		live = append(live, w)
	}
	s.writes = live
}

type config struct {
	ttl             time.Duration
	capacity        int
	cleanupInterval time.Duration
}

// Option configures a SightingStore.
type Option func(*config)

// NewSightingStore builds a store with DefaultTTL and DefaultCapacity unless
// overridden. Expired entries are purged every ttl/2 by default.
func NewSightingStore(opts ...Option) *SightingStore {
	c := config{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.cleanupInterval <= 0 {
		c.cleanupInterval = c.ttl / 2
	}

	return &SightingStore{
		cache:    cache.New(c.ttl, c.cleanupInterval),
		ttl:      c.ttl,
		capacity: c.capacity,
		latest:   make(map[string]uint64),
	}
}

// WithTTL sets the entry lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCapacity sets the maximum number of entries. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.capacity = n
		}
	}
}

// WithCleanupInterval sets how often expired entries are purged.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) {
		c.cleanupInterval = d
	}
}
