package core

// session.go holds per-browser working state and the classification result
// cache. Both live in memory with a sliding TTL.
//
// A session moves through three states:
//
//	empty     -> no input, no run
//	loaded    -> input parsed, no run
//	classified-> input parsed, run cached under Session.RunID
//
// Loading a new input always returns the session to "loaded" and evicts the
// previous run, so a stale result can never be downloaded for a new file.

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle session and its run stay cached.
const DefaultSessionTTL = 30 * time.Minute

// Session is one browser's working state. Callers hold Lock while reading
// or changing it so only one action runs per session at a time.
type Session struct {
	sync.Mutex

	ID    string
	Input *Input
	RunID string
}

// SessionStore maps session IDs to Sessions.
type SessionStore struct {
	ttl   time.Duration
	items *cache.Cache
}

// NewSessionStore creates a store whose sessions expire after ttl idle time.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:   ttl,
		items: cache.New(ttl, ttl/2),
	}
}

// Get returns the session for id, creating an empty one when absent.
// Every call refreshes the session's expiry.
func (s *SessionStore) Get(id string) *Session {
	if v, ok := s.items.Get(id); ok {
		sess := v.(*Session)
		s.items.Set(id, sess, cache.DefaultExpiration)
		return sess
	}

	sess := &Session{ID: id}
	if err := s.items.Add(id, sess, cache.DefaultExpiration); err != nil {
		// Lost a race with another request for the same id.
		if v, ok := s.items.Get(id); ok {
			return v.(*Session)
		}
		s.items.Set(id, sess, cache.DefaultExpiration)
	}
	return sess
}

// Peek returns the session without creating or refreshing it.
func (s *SessionStore) Peek(id string) (*Session, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.items.ItemCount()
}

// ResultCache keeps completed runs by run ID until they expire.
type ResultCache struct {
	items *cache.Cache
}

// NewResultCache creates a cache whose runs expire after ttl.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &ResultCache{items: cache.New(ttl, ttl/2)}
}

// Put stores run under run.ID.
func (c *ResultCache) Put(run *Run) {
	c.items.Set(run.ID, run, cache.DefaultExpiration)
}

// Get returns the run or ErrRunNotFound.
func (c *ResultCache) Get(id string) (*Run, error) {
	v, ok := c.items.Get(id)
	if !ok {
		return nil, ErrRunNotFound
	}
	return v.(*Run), nil
}

// Delete evicts a run. Unknown IDs are ignored.
func (c *ResultCache) Delete(id string) {
	c.items.Delete(id)
}

// Len returns the number of cached runs.
func (c *ResultCache) Len() int {
	return c.items.ItemCount()
}
