package cache

import (
	"container/list"
	"fmt"
	"strings"
	"time"
)

// Strategy names an eviction policy.
type Strategy string

const (
	// StrategyLRU evicts the least recently used entry.
	StrategyLRU Strategy = "lru"
	// StrategyFIFO evicts the oldest inserted entry.
	StrategyFIFO Strategy = "fifo"
	// StrategyTTL evicts the entry with the smallest remaining lifetime.
	StrategyTTL Strategy = "ttl"
)

// EvictionPolicy decides which entry leaves a full cache.
// All methods are called with the cache lock held.
type EvictionPolicy interface {
	// Strategy returns the policy name.
	Strategy() Strategy
	// Added is called after a key has been inserted.
	Added(key string)
	// Accessed is called on every cache hit.
	Accessed(key string)
	// Removed is called whenever a key leaves the cache.
	Removed(key string)
	// Victim returns the key to evict. remaining reports the lifetime left for a key.
	Victim(remaining func(key string) time.Duration) (string, bool)
	// Reset forgets all keys.
	Reset()
}

// NewPolicy returns the policy for the given strategy name.
// An empty name selects LRU.
func NewPolicy(strategy Strategy) (EvictionPolicy, error) {
	switch Strategy(strings.ToLower(string(strategy))) {
	case StrategyLRU, "":
		return newOrderPolicy(StrategyLRU, true), nil
	case StrategyFIFO:
		return newOrderPolicy(StrategyFIFO, false), nil
	case StrategyTTL:
		return &ttlPolicy{keys: make(map[string]struct{})}, nil
	default:
		return nil, fmt.Errorf("unknown eviction strategy %q", strategy)
	}
}

// orderPolicy keeps the access-order sequence shared by LRU and FIFO.
// The front of the list is the next victim.
type orderPolicy struct {
	name     Strategy
	promote  bool
	order    *list.List
	elements map[string]*list.Element
}

func newOrderPolicy(name Strategy, promote bool) *orderPolicy {
	return &orderPolicy{
		name:     name,
		promote:  promote,
		order:    list.New(),
		elements: make(map[string]*list.Element),
	}
}

func (p *orderPolicy) Strategy() Strategy { return p.name }

func (p *orderPolicy) Added(key string) {
	if el, ok := p.elements[key]; ok {
		p.order.MoveToBack(el)
		return
	}
	p.elements[key] = p.order.PushBack(key)
}

func (p *orderPolicy) Accessed(key string) {
	if !p.promote {
		return
	}
	if el, ok := p.elements[key]; ok {
		p.order.MoveToBack(el)
	}
}

func (p *orderPolicy) Removed(key string) {
	if el, ok := p.elements[key]; ok {
		p.order.Remove(el)
		delete(p.elements, key)
	}
}

func (p *orderPolicy) Victim(func(string) time.Duration) (string, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	return front.Value.(string), true
}

func (p *orderPolicy) Reset() {
	p.order.Init()
	p.elements = make(map[string]*list.Element)
}

// ttlPolicy scans all keys for the one closest to expiry.
type ttlPolicy struct {
	keys map[string]struct{}
}

func (p *ttlPolicy) Strategy() Strategy { return StrategyTTL }

func (p *ttlPolicy) Added(key string) { p.keys[key] = struct{}{} }

func (p *ttlPolicy) Accessed(string) {}

func (p *ttlPolicy) Removed(key string) { delete(p.keys, key) }

func (p *ttlPolicy) Victim(remaining func(string) time.Duration) (string, bool) {
	var (
		victim string
		best   time.Duration
		found  bool
	)
	for key := range p.keys {
		left := remaining(key)
		// Ties break on key so eviction is deterministic.
		if !found || left < best || (left == best && key < victim) {
			victim, best, found = key, left, true
		}
	}
	return victim, found
}

func (p *ttlPolicy) Reset() {
	p.keys = make(map[string]struct{})
}
