package cache

import (
	"context"
	"sync"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

type entry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// InMemoryRateCache keeps rates in a process-local map.
// Suitable for a single indexer process and tests.
type InMemoryRateCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRateCache creates the cache and starts its cleanup goroutine
func NewInMemoryRateCache() *InMemoryRateCache {
	c := &InMemoryRateCache{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a cached, unexpired rate
func (c *InMemoryRateCache) Get(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[rateKey(from, to)]
	if !ok || !c.now().Before(e.expiresAt) {
		return decimal.Zero, false, nil
	}
	return e.rate, true, nil
}

// Set stores a rate for ttl
func (c *InMemoryRateCache) Set(ctx context.Context, from, to valueobject.Currency, rate decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[rateKey(from, to)] = entry{rate: rate, expiresAt: c.now().Add(ttl)}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryRateCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryRateCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryRateCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries, expired ones included until cleanup runs
func (c *InMemoryRateCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ RateCache = (*InMemoryRateCache)(nil)
