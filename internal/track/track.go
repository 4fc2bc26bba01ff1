package track

import (
	"fmt"
	"strings"
	"time"
)

// SearchPrefix marks a deferred reference: a catalog entry that has not been
// mapped to a streamable source yet. The text after the prefix is the search
// query, resolved at the moment the entry is about to play.
const SearchPrefix = "ytsearch:"

// Ref identifies a single playable audio source. It is either a directly
// streamable URL or a deferred search reference (see SearchPrefix).
// A Ref is immutable once created.
type Ref string

// Deferred reports whether the ref still needs search substitution
// before it can be streamed.
func (r Ref) Deferred() bool {
	return strings.HasPrefix(string(r), SearchPrefix)
}

// Query returns the search query of a deferred ref, or "" for direct refs.
func (r Ref) Query() string {
	if !r.Deferred() {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(string(r), SearchPrefix))
}

// DeferredRef builds a deferred search ref from descriptive metadata.
func DeferredRef(title, artist string) Ref {
	q := strings.TrimSpace(title + " " + artist)
	return Ref(SearchPrefix + q)
}

// QueueEntry is one pending item in a guild's queue.
type QueueEntry struct {
	Ref       Ref
	Requester string
}

// Metadata is the descriptive snapshot of a track. It is created with
// placeholder values the moment a track begins loading and updated in place
// once the asynchronous lookup resolves; readers may observe either state.
type Metadata struct {
	Ref       Ref
	Title     string
	Artist    string
	Duration  string
	Requester string
	Thumbnail string
}

// PlaceholderTitle is shown until the metadata lookup for a track resolves.
const PlaceholderTitle = "Loading..."

// Placeholder returns the initial metadata snapshot for a track that has
// just started loading.
func Placeholder(ref Ref, requester string) *Metadata {
	return &Metadata{
		Ref:       ref,
		Title:     PlaceholderTitle,
		Requester: requester,
	}
}

// FormatDuration renders a duration as m:ss or h:mm:ss.
// A zero duration renders as the empty string, which presenters omit.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
