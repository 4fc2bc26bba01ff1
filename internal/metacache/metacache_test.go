package metacache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/track"
)

func TestPutGet(t *testing.T) {
	c := metacache.New(4)

	ref := track.Ref("https://www.youtube.com/watch?v=abc123")
	if _, ok := c.Get(ref); ok {
		t.Fatalf("Get on empty cache reported a hit")
	}

	c.Put(ref, metacache.Entry{Title: "Some Song", Author: "Some Artist"})
	got, ok := c.Get(ref)
	if !ok {
		t.Fatalf("Get after Put reported a miss")
	}
	if got.Title != "Some Song" || got.Author != "Some Artist" {
		t.Errorf("Get returned %+v", got)
	}
}

func TestReplaceKeepsSize(t *testing.T) {
	c := metacache.New(4)
	ref := track.Ref("ref")

	c.Put(ref, metacache.Entry{Title: "first"})
	c.Put(ref, metacache.Entry{Title: "second"})

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	got, _ := c.Get(ref)
	if got.Title != "second" {
		t.Errorf("Title = %q, want %q", got.Title, "second")
	}
}

func TestEvictsLeastRecentlyUsedWhenFull(t *testing.T) {
	c := metacache.New(2)

	c.Put(track.Ref("a"), metacache.Entry{Title: "a"})
	c.Put(track.Ref("b"), metacache.Entry{Title: "b"})
	c.Put(track.Ref("c"), metacache.Entry{Title: "c"})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get(track.Ref("a")); ok {
		t.Errorf("least recently used entry was not evicted")
	}
	for _, ref := range []track.Ref{"b", "c"} {
		if _, ok := c.Get(ref); !ok {
			t.Errorf("entry %q missing", ref)
		}
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	c := metacache.New(2)

	c.Put(track.Ref("a"), metacache.Entry{Title: "a"})
	c.Put(track.Ref("b"), metacache.Entry{Title: "b"})
	c.Get(track.Ref("a"))
	c.Put(track.Ref("c"), metacache.Entry{Title: "c"})

	if _, ok := c.Get(track.Ref("a")); !ok {
		t.Errorf("recently read entry was evicted")
	}
	if _, ok := c.Get(track.Ref("b")); ok {
		t.Errorf("stale entry survived eviction")
	}
}

func TestConcurrentPut(t *testing.T) {
	c := metacache.New(64)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := track.Ref(fmt.Sprintf("ref-%d", i%8))
			c.Put(ref, metacache.Entry{Title: fmt.Sprintf("title-%d", i)})
			c.Get(ref)
		}(i)
	}
	wg.Wait()

	if c.Len() != 8 {
		t.Errorf("Len() = %d, want 8", c.Len())
	}
}
