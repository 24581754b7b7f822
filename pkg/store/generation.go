package store

import (
	"sync"
	"sync/atomic"
)

// Generation is a monotonically increasing token. A fetch captures the
// token when it is issued and drops its result if the token moved on.
type Generation struct {
	n atomic.Uint64
}

// Next advances the generation and returns the new token.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

func (g *Generation) Current() uint64 {
	return g.n.Load()
}

func (g *Generation) IsCurrent(token uint64) bool {
	return g.n.Load() == token
}

// KeyedGeneration keeps one generation per key, e.g. per conversation.
type KeyedGeneration struct {
	mu sync.Mutex
	m  map[string]uint64
}

func (g *KeyedGeneration) Next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = map[string]uint64{}
	}
	g.m[key]++
	return g.m[key]
}

func (g *KeyedGeneration) IsCurrent(key string, token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m[key] == token
}

// Invalidate makes every token issued for key stale.
func (g *KeyedGeneration) Invalidate(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m != nil {
		g.m[key]++
	}
}
