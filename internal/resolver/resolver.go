// Package resolver turns user-submitted links into playable track refs.
//
// Classification is link-shape based, in priority order: a YouTube playlist
// link expands to its members, a single YouTube link maps to itself, a
// Spotify catalog link is substituted via search (deferred to play time for
// collection members), and anything else passes through as a best-effort
// direct link. Lookup failures degrade to "no result" so the orchestrator
// can treat them as skips; they never surface as hard errors.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JankoV12/dis-track/internal/extractor"
	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/track"
)

// Extractor is the YouTube/direct-stream side of media extraction.
type Extractor interface {
	Playlist(ctx context.Context, link string) ([]track.Ref, error)
	Open(ctx context.Context, ref track.Ref) (io.ReadCloser, error)
	Metadata(ctx context.Context, ref track.Ref) (metacache.Entry, error)
}

// Catalog maps commercial-catalog links to search queries.
type Catalog interface {
	Queries(ctx context.Context, link string) ([]extractor.SearchQuery, error)
}

// Searcher substitutes a query with the first streamable hit.
type Searcher interface {
	FirstResult(ctx context.Context, query string) (track.Ref, error)
}

// Resolver composes the extraction collaborators into the orchestrator's
// Source.
type Resolver struct {
	extract Extractor
	catalog Catalog
	search  Searcher
}

var _ player.Source = (*Resolver)(nil)

func New(extract Extractor, catalog Catalog, search Searcher) *Resolver {
	return &Resolver{extract: extract, catalog: catalog, search: search}
}

// ResolveFirst returns the first playable ref for link. It degrades to
// ErrNothingPlayable on any lookup failure.
func (r *Resolver) ResolveFirst(ctx context.Context, link string) (track.Ref, error) {
	if _, _, ok := extractor.SpotifyKind(link); ok {
		queries, err := r.catalog.Queries(ctx, link)
		if err != nil || len(queries) == 0 {
			if err != nil {
				slog.Warn("catalog lookup failed", "link", link, "error", err)
			}
			return "", player.ErrNothingPlayable
		}
		return track.DeferredRef(queries[0].Title, queries[0].Artist), nil
	}

	if extractor.IsYouTubePlaylist(link) {
		members, err := r.extract.Playlist(ctx, link)
		if err != nil || len(members) == 0 {
			if err != nil {
				slog.Warn("playlist expansion failed", "link", link, "error", err)
			}
			return "", player.ErrNothingPlayable
		}
		return members[0], nil
	}

	// Single YouTube link or best-effort direct link: unchanged.
	return track.Ref(link), nil
}

// ResolveAll returns every ref for link in listed order. Collection members
// from the catalog come back deferred so the per-member search cost is paid
// when each member is about to play, not up front.
func (r *Resolver) ResolveAll(ctx context.Context, link string) ([]track.Ref, error) {
	if _, _, ok := extractor.SpotifyKind(link); ok {
		queries, err := r.catalog.Queries(ctx, link)
		if err != nil {
			slog.Warn("catalog expansion failed", "link", link, "error", err)
			return nil, nil
		}
		refs := make([]track.Ref, 0, len(queries))
		for _, q := range queries {
			refs = append(refs, track.DeferredRef(q.Title, q.Artist))
		}
		return refs, nil
	}

	if extractor.IsYouTubePlaylist(link) {
		members, err := r.extract.Playlist(ctx, link)
		if err != nil {
			slog.Warn("playlist expansion failed", "link", link, "error", err)
			return nil, nil
		}
		return members, nil
	}

	return []track.Ref{track.Ref(link)}, nil
}

// OpenStream opens the audio stream for ref, substituting deferred catalog
// refs with their first search hit at this point.
func (r *Resolver) OpenStream(ctx context.Context, ref track.Ref) (io.ReadCloser, track.Ref, error) {
	direct := ref
	if ref.Deferred() {
		hit, err := r.search.FirstResult(ctx, ref.Query())
		if err != nil {
			if errors.Is(err, extractor.ErrNotFound) {
				return nil, "", fmt.Errorf("no substitute for %q: %w", ref.Query(), player.ErrStreamNotFound)
			}
			return nil, "", fmt.Errorf("search substitution failed: %w", err)
		}
		direct = hit
	}

	stream, err := r.extract.Open(ctx, direct)
	if err != nil {
		if errors.Is(err, extractor.ErrNotFound) {
			return nil, "", fmt.Errorf("%v: %w", err, player.ErrStreamNotFound)
		}
		return nil, "", err
	}
	return stream, direct, nil
}

// FetchMetadata describes a direct ref.
func (r *Resolver) FetchMetadata(ctx context.Context, ref track.Ref) (metacache.Entry, error) {
	return r.extract.Metadata(ctx, ref)
}
