package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

const lockStripes = 64

// Store holds one Record per user id.
type Store interface {
	// Get returns a copy of the user's record, or NewRecord if none exists.
	Get(userID string) Record
	// Put replaces the user's record.
	Put(userID string, r Record)
	// Reset removes the user's record.
	Reset(userID string)
	// AppendTurn records an exchange, keeping the last MaxTurns.
	AppendTurn(userID, user, bot string)
	// Lock serializes turns of one user. Call the returned func to release.
	Lock(userID string) (unlock func())
	// Len returns the number of stored records.
	Len() int
}

// MemoryStore is an in-process Store with idle expiry.
type MemoryStore struct {
	cache   *cache.Cache
	stripes [lockStripes]sync.Mutex
	// mu guards read-modify-write of a single record.
	mu sync.Mutex
}

// NewMemoryStore creates a store whose records expire after ttl without a
// write. A ttl of zero keeps records forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
	}
	cleanup := min(ttl, 10*time.Minute)
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (s *MemoryStore) Get(userID string) Record {
	if x, found := s.cache.Get(userID); found {
		if r, ok := x.(*Record); ok {
			return r.Clone()
		}
	}
	return NewRecord()
}

func (s *MemoryStore) Put(userID string, r Record) {
	stored := r.Clone()
	s.cache.Set(userID, &stored, cache.DefaultExpiration)
}

func (s *MemoryStore) Reset(userID string) {
	s.cache.Delete(userID)
}

func (s *MemoryStore) AppendTurn(userID, user, bot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.Get(userID)
	r.AppendTurn(user, bot)
	s.Put(userID, r)
}

func (s *MemoryStore) Lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	m := &s.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
