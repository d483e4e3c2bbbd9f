// Package viewcache tracks a version counter per (owner, collection) pair.
// List endpoints derive ETags from the current version; every successful
// mutation bumps the affected collection so cached views revalidate.
package viewcache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Collection names used across the API.
const (
	Contacts      = "contacts"
	Organizations = "organizations"
	Deals         = "deals"
)

type key struct {
	owner      uuid.UUID
	collection string
}

// Versions is a concurrency-safe version counter set. The zero value is not
// usable; construct with New.
type Versions struct {
	mu sync.Mutex
	v  map[key]uint64
}

// New creates an empty Versions set.
func New() *Versions {
	return &Versions{v: make(map[key]uint64)}
}

// Bump increments the version of each named collection for the owner.
func (c *Versions) Bump(owner uuid.UUID, collections ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, col := range collections {
		c.v[key{owner, col}]++
	}
}

// ETag returns the strong validator for the owner's view of a collection.
// Unseen collections start at version 0, which is still a valid tag.
func (c *Versions) ETag(owner uuid.UUID, collection string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf(`"%s-%s-v%d"`, collection, owner, c.v[key{owner, collection}])
}
