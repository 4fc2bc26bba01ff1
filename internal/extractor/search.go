package extractor

import (
	"context"
	"fmt"

	"github.com/JankoV12/dis-track/internal/track"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
)

// Search substitutes a title/artist query with a streamable YouTube ref.
// YouTube Music is asked first since its results are music-only; plain
// YouTube search is the fallback.
type Search struct {
	yt *ytsearch.Client
}

func NewSearch() *Search {
	return &Search{yt: ytsearch.NewClient(nil)}
}

// FirstResult returns the first hit for query, or ErrNotFound when both
// backends come up empty.
func (s *Search) FirstResult(ctx context.Context, query string) (track.Ref, error) {
	if ref, ok := s.musicFirst(query); ok {
		return ref, nil
	}

	res, err := s.yt.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("youtube search failed: %w", err)
	}
	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		return WatchRef(v.VideoID), nil
	}
	return "", fmt.Errorf("no search hit for %q: %w", query, ErrNotFound)
}

func (s *Search) musicFirst(query string) (track.Ref, bool) {
	search := ytmusic.TrackSearch(query)
	result, err := search.Next()
	if err != nil {
		return "", false
	}
	for _, t := range result.Tracks {
		if t.VideoID == "" {
			continue
		}
		return WatchRef(t.VideoID), true
	}
	return "", false
}
