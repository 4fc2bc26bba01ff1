// Package presenters projects orchestrator state into user-facing
// representations. Everything here is a pure function of a snapshot; the
// read side never mutates core state and tolerates metadata that is still
// in placeholder form.
package presenters

import (
	"fmt"
	"strings"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/track"
)

// QueueDisplayLimit caps the textual queue listing; the remainder collapses
// into a "+N more" suffix.
const QueueDisplayLimit = 20

// NowPlayingView is the structured "what is audible right now" projection.
type NowPlayingView struct {
	Playing   bool
	Title     string
	Artist    string
	Duration  string
	Requester string
	Thumbnail string
	Queued    int
}

// BuildNowPlayingView projects a guild snapshot. An idle session yields an
// explicit not-playing view.
func BuildNowPlayingView(snap player.Snapshot) NowPlayingView {
	if snap.Status == player.StatusIdle || snap.Current == nil {
		return NowPlayingView{Playing: false, Queued: len(snap.Queue)}
	}
	return NowPlayingView{
		Playing:   true,
		Title:     snap.Current.Title,
		Artist:    snap.Current.Artist,
		Duration:  snap.Current.Duration,
		Requester: snap.Current.Requester,
		Thumbnail: snap.Current.Thumbnail,
		Queued:    len(snap.Queue),
	}
}

// FormatQueue renders the pending entries as a short listing, drawing
// best-effort titles from the metadata cache and falling back to the raw
// ref for unknown entries.
func FormatQueue(entries []track.QueueEntry, cache *metacache.Cache) string {
	if len(entries) == 0 {
		return "The queue is empty."
	}

	var b strings.Builder
	shown := entries
	if len(shown) > QueueDisplayLimit {
		shown = shown[:QueueDisplayLimit]
	}

	for i, entry := range shown {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entryLabel(entry, cache))
	}
	if rest := len(entries) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "+%d more\n", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}

func entryLabel(entry track.QueueEntry, cache *metacache.Cache) string {
	if cache != nil {
		if meta, ok := cache.Get(entry.Ref); ok && meta.Title != "" {
			if meta.Author != "" {
				return fmt.Sprintf("%s - %s", meta.Title, meta.Author)
			}
			return meta.Title
		}
	}
	if entry.Ref.Deferred() {
		return entry.Ref.Query()
	}
	return string(entry.Ref)
}

// FormatNowPlaying renders the structured view as a short status line.
func FormatNowPlaying(view NowPlayingView) string {
	if !view.Playing {
		return "Nothing is playing."
	}

	var b strings.Builder
	b.WriteString(view.Title)
	if view.Artist != "" {
		fmt.Fprintf(&b, " - %s", view.Artist)
	}
	if view.Duration != "" {
		fmt.Fprintf(&b, " [%s]", view.Duration)
	}
	if view.Requester != "" {
		fmt.Fprintf(&b, " (requested by %s)", view.Requester)
	}
	if view.Queued > 0 {
		fmt.Fprintf(&b, " | %d queued", view.Queued)
	}
	return b.String()
}
