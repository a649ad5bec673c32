// Package dedupe maps client request ids to the simulation they produced so
// a retried request returns the original result instead of a new draw.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper remembers which simulation answered a request id.
type Deduper interface {
	// Remember binds key to value unless key is already bound. It returns the
	// bound value and whether the key was already present.
	Remember(ctx context.Context, key, value string) (string, bool)

	// Lookup returns the value bound to key.
	Lookup(ctx context.Context, key string) (string, bool)
	// Forget unbinds key if it is still bound to value and reports whether
	// it did.
	Forget(ctx context.Context, key, value string) bool

	Size() int64
}

// node is an entry in the insertion-ordered list. head is the newest entry.
type node struct {
	key, value string
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper evicts the oldest entry once maxSize is reached. A maxSize
// of zero or less keeps every entry.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryDeduper) Remember(ctx context.Context, key, value string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		return n.value, true
	}
	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key, n.value = key, value
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[key] = n
	d.size.Add(1)
	return value, false
}

func (d *inMemoryDeduper) Lookup(ctx context.Context, key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return n.value, true
}

func (d *inMemoryDeduper) Forget(ctx context.Context, key, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok || n.value != value {
		return false
	}
	d.unlink(n)
	return true
}

// evictOldest drops the tail. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.unlink(d.tail)
	}
}

// unlink removes n from the list and map. Caller holds d.mu.
func (d *inMemoryDeduper) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.entries, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
