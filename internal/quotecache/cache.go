// Package quotecache holds issued quotes until they are consumed by an
// acceptance or removed by the expiry sweep. Consumption is at-most-once: a
// quote id can be successfully taken by exactly one caller, ever.
package quotecache

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

var (
	// ErrNotFound is returned when a quote id is unknown or already consumed.
	ErrNotFound = errors.New("quote not found")

	// ErrExpired is returned when a quote id is known but past its expiry.
	// Callers can use the distinction to offer a re-quote.
	ErrExpired = errors.New("quote expired")
)

const shardCount = 16

// shard owns a slice of the key space. Take and sweep serialize on the shard
// lock, so a quote is never both taken and swept.
type shard struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
}

// Cache is an expiring, sharded in-memory quote store. Operations on distinct
// shards proceed fully in parallel.
type Cache struct {
	shards [shardCount]*shard
	now    func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	c := &Cache{now: func() time.Time { return time.Now().UTC() }}
	for i := range c.shards {
		c.shards[i] = &shard{quotes: make(map[string]*domain.Quote)}
	}
	return c
}

func (c *Cache) shardFor(quoteID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(quoteID))
	return c.shards[h.Sum32()%shardCount]
}

// Put inserts a quote keyed by its own id.
func (c *Cache) Put(quote *domain.Quote) {
	s := c.shardFor(quote.QuoteID)
	s.mu.Lock()
	s.quotes[quote.QuoteID] = quote
	s.mu.Unlock()
}

// TakeIfValid atomically removes and returns the quote if it is present and
// not expired. An expired entry is removed and reported as ErrExpired; an
// unknown or already-consumed id is ErrNotFound. This is the only path by
// which a quote may be consumed.
func (c *Cache) TakeIfValid(quoteID string) (*domain.Quote, error) {
	s := c.shardFor(quoteID)
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotes[quoteID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.quotes, quoteID)

	if quote.Expired(c.now()) {
		return nil, ErrExpired
	}
	return quote, nil
}

// SweepExpired removes every entry whose expiry has passed at the given
// instant and returns how many were removed. An id removed here can never
// subsequently succeed in TakeIfValid.
func (c *Cache) SweepExpired(now time.Time) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for id, quote := range s.quotes {
			if quote.Expired(now) {
				delete(s.quotes, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of cached quotes.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.quotes)
		s.mu.Unlock()
	}
	return n
}
