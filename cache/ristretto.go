// Package cache provides keyed blob stores for page ledgers and rendered page
// content.
package cache

import (
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
)

// Ristretto is an in-memory blob store. Its generation is a counter bumped by
// Invalidate.
type Ristretto struct {
	cache      *ristretto.Cache
	generation atomic.Uint64
}

type RistrettoConfig struct {
	NumCounters int64 `koanf:"num_counters"`
	MaxCost     int64 `koanf:"max_cost"`
	BufferItems int64 `koanf:"buffer_items"`
}

func RistrettoDefaults() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1e6,     // number of keys to track frequency of (1M).
		MaxCost:     1 << 28, // maximum cost of cache (256MB).
		BufferItems: 64,      // number of keys per Get buffer.
	}
}

func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{cache: c}, nil
}

func (r *Ristretto) Fetch(key string) ([]byte, bool, error) {
	value, ok := r.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	blob, ok := value.([]byte)
	if !ok {
		r.cache.Del(key)
		return nil, false, nil
	}
	return blob, true, nil
}

// Save stores blob under key. Ristretto applies writes asynchronously and may
// refuse admission under memory pressure; a refused write behaves like a
// later eviction.
func (r *Ristretto) Save(key string, blob []byte) error {
	r.cache.Set(key, blob, int64(len(blob))+int64(len(key)))
	r.cache.Wait()
	return nil
}

func (r *Ristretto) Delete(key string) error {
	r.cache.Del(key)
	return nil
}

func (r *Ristretto) Generation() string {
	return strconv.FormatUint(r.generation.Load(), 10)
}

// Invalidate empties the cache and moves it to a new generation.
func (r *Ristretto) Invalidate() error {
	r.generation.Add(1)
	r.cache.Clear()
	return nil
}

func (r *Ristretto) Close() error {
	r.cache.Close()
	return nil
}
