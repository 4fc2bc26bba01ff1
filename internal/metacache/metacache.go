// Package metacache memoizes descriptive track metadata so repeated queue
// renderings do not hit the extraction collaborator again.
//
// Entries are derived data, so concurrent writers race benignly and
// last-writer-wins. The cache is bounded; when full, the least recently
// used entry is evicted.
package metacache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JankoV12/dis-track/internal/track"
)

// Entry is the cached descriptive metadata for one track ref.
type Entry struct {
	Title     string
	Author    string
	Thumbnail string
	Duration  time.Duration
}

type Cache struct {
	inner *lru.Cache[track.Ref, Entry]
}

// New creates a cache holding at most capacity entries.
// A capacity of zero or less defaults to 1024.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1024
	}
	inner, err := lru.New[track.Ref, Entry](capacity)
	if err != nil {
		panic(err)
	}
	return &Cache{inner: inner}
}

// Get returns the cached entry for ref, if present.
func (c *Cache) Get(ref track.Ref) (Entry, bool) {
	return c.inner.Get(ref)
}

// Put stores the entry for ref, replacing any previous value.
func (c *Cache) Put(ref track.Ref, entry Entry) {
	c.inner.Add(ref, entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}
