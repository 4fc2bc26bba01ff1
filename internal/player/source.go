package player

import (
	"context"
	"io"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/track"
)

// Source is the media extraction collaborator. The orchestrator never talks
// to YouTube or Spotify directly; everything goes through this interface so
// tests can substitute a fake.
type Source interface {
	// ResolveFirst returns the first playable ref for link, so playback can
	// start without expanding an entire playlist. A lookup failure degrades
	// to ErrNothingPlayable, never a hard error.
	ResolveFirst(ctx context.Context, link string) (track.Ref, error)

	// ResolveAll returns every ref for link in listed order. Playlist
	// members from catalog sources may come back as deferred search refs.
	// A lookup failure degrades to an empty slice.
	ResolveAll(ctx context.Context, link string) ([]track.Ref, error)

	// OpenStream produces the audio byte stream for ref, performing search
	// substitution for deferred refs. It returns the direct ref actually
	// opened alongside the stream. "Not found" failures wrap
	// ErrStreamNotFound; anything else is an unexpected failure.
	OpenStream(ctx context.Context, ref track.Ref) (io.ReadCloser, track.Ref, error)

	// FetchMetadata looks up descriptive metadata for a direct ref.
	// It may fail independently of playability.
	FetchMetadata(ctx context.Context, ref track.Ref) (metacache.Entry, error)
}
