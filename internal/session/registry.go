// Package session keeps one chat.Session per browser session.
package session

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"recyclebot/internal/chat"
)

// DefaultMaxSessions bounds the registry when no size is configured.
const DefaultMaxSessions = 1000

// Factory builds a fresh conversation for id.
type Factory func(id string) *chat.Session

// Registry maps session IDs to conversations. The least recently used
// session is dropped once the registry is full.
type Registry struct {
	cache   *lru.Cache
	factory Factory
}

func NewRegistry(maxSessions int, factory Factory) (*Registry, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	cache, err := lru.New(maxSessions)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Registry{cache: cache, factory: factory}, nil
}

// Get returns the session for id, if it is still held.
func (r *Registry) Get(id string) (*chat.Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*chat.Session), true
}

// GetOrCreate returns the session for id, or a new session under a freshly
// generated ID when id is empty or unknown. Client-supplied IDs are never adopted.
func (r *Registry) GetOrCreate(id string) (*chat.Session, bool) {
	if s, ok := r.Get(id); ok {
		return s, false
	}
	return r.Create(), true
}

// Create starts a new session under a random UUID.
func (r *Registry) Create() *chat.Session {
	id := uuid.NewString()
	s := r.factory(id)
	r.cache.Add(id, s)
	return s
}

func (r *Registry) Len() int { return r.cache.Len() }
