package ratelimit

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store holds one bucket per key. GetOrCreate must be atomic: concurrent
// first requests for the same key all receive the same bucket.
type Store interface {
	GetOrCreate(key string, create func() *Bucket) *Bucket
	Len() int
}

// UnboundedStore never evicts. Memory grows with the number of distinct
// clients seen since startup.
type UnboundedStore struct {
	buckets sync.Map // string -> *Bucket
	count   atomic.Int64
}

// NewUnboundedStore creates an empty UnboundedStore.
func NewUnboundedStore() *UnboundedStore {
	return &UnboundedStore{}
}

// GetOrCreate returns the bucket for key, creating it on first use.
func (s *UnboundedStore) GetOrCreate(key string, create func() *Bucket) *Bucket {
	if b, ok := s.buckets.Load(key); ok {
		return b.(*Bucket)
	}
	actual, loaded := s.buckets.LoadOrStore(key, create())
	if !loaded {
		s.count.Add(1)
	}
	return actual.(*Bucket)
}

// Len returns the number of buckets.
func (s *UnboundedStore) Len() int {
	return int(s.count.Load())
}

// LRUStore keeps at most size buckets and evicts the least recently used.
// An evicted client starts again with a full bucket.
type LRUStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Bucket]
}

// NewLRUStore creates an LRUStore holding at most size buckets.
func NewLRUStore(size int) (*LRUStore, error) {
	cache, err := lru.New[string, *Bucket](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: cache}, nil
}

// GetOrCreate returns the bucket for key, creating it on first use and
// marking it most recently used.
func (s *LRUStore) GetOrCreate(key string, create func() *Bucket) *Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.cache.Get(key); ok {
		return b
	}
	b := create()
	s.cache.Add(key, b)
	return b
}

// Len returns the number of buckets.
func (s *LRUStore) Len() int {
	return s.cache.Len()
}
