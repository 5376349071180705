package session

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store owns one session record per user identity. Operations never
// fail: a missing record on GetOrCreate is the creation trigger, not an
// error.
type Store interface {
	// GetOrCreate returns the user's session, creating a fresh one at
	// AwaitingCategory if absent.
	GetOrCreate(userID int64) *Session

	// Set replaces the user's session record, used after each transition.
	Set(userID int64, sess *Session)

	// Reset forces the session back to AwaitingCategory with cleared
	// fields. The record is kept, not deleted.
	Reset(userID int64)
}

// memoryStore is an in-memory Store with optional inactivity expiry.
type memoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory session store. A non-positive ttl
// disables expiry entirely; cleanupInterval controls how often expired
// records are swept.
func NewMemoryStore(ttl, cleanupInterval time.Duration) Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanupInterval = 0
	}
	return &memoryStore{cache: gocache.New(ttl, cleanupInterval)}
}

func (m *memoryStore) GetOrCreate(userID int64) *Session {
	key := storeKey(userID)
	if v, ok := m.cache.Get(key); ok {
		if sess, ok := v.(*Session); ok {
			return sess
		}
	}
	sess := New()
	m.cache.Set(key, sess, gocache.DefaultExpiration)
	return sess
}

func (m *memoryStore) Set(userID int64, sess *Session) {
	// Set also refreshes the expiry window on every transition.
	m.cache.Set(storeKey(userID), sess, gocache.DefaultExpiration)
}

func (m *memoryStore) Reset(userID int64) {
	sess := m.GetOrCreate(userID)
	sess.Reset()
	m.Set(userID, sess)
}

func storeKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
