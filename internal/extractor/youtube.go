// Package extractor holds the clients for the external media collaborators:
// YouTube extraction, YouTube search, and the Spotify catalog. Each client
// is a thin wrapper that the resolver composes into the orchestrator's
// Source.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/track"
	youtube "github.com/kkdai/youtube/v2"
)

// ErrNotFound is the "not found" class of extraction failure: the video is
// gone, private, or region locked. Callers skip these without counting them
// as unexpected failures.
var ErrNotFound = errors.New("media not found")

// ErrNoMetadata indicates the ref is not one we can describe (e.g. a plain
// direct audio URL).
var ErrNoMetadata = errors.New("no metadata available for ref")

// YouTube extracts streams and metadata for YouTube links, and falls back to
// a plain HTTP GET for any other direct URL.
type YouTube struct {
	client youtube.Client
	http   *http.Client
}

func NewYouTube() *YouTube {
	return &YouTube{
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Playlist returns the member refs of a YouTube playlist in listed order.
func (y *YouTube) Playlist(ctx context.Context, link string) ([]track.Ref, error) {
	playlist, err := y.client.GetPlaylistContext(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	refs := make([]track.Ref, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		refs = append(refs, WatchRef(entry.ID))
	}
	return refs, nil
}

// Open produces the audio byte stream for a direct ref. YouTube links go
// through the extraction client; anything else is fetched as-is.
func (y *YouTube) Open(ctx context.Context, ref track.Ref) (io.ReadCloser, error) {
	if !IsYouTubeLink(string(ref)) {
		return y.openDirect(ctx, ref)
	}

	video, err := y.client.GetVideoContext(ctx, string(ref))
	if err != nil {
		return nil, classify(err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, fmt.Errorf("no audio formats for video %s: %w", video.ID, ErrNotFound)
	}

	stream, _, err := y.client.GetStreamContext(ctx, video, &formats[0])
	if err != nil {
		return nil, classify(err)
	}
	return stream, nil
}

// Metadata describes a YouTube ref. Non-YouTube refs have no descriptive
// source and return ErrNoMetadata.
func (y *YouTube) Metadata(ctx context.Context, ref track.Ref) (metacache.Entry, error) {
	if !IsYouTubeLink(string(ref)) {
		return metacache.Entry{}, ErrNoMetadata
	}

	video, err := y.client.GetVideoContext(ctx, string(ref))
	if err != nil {
		return metacache.Entry{}, classify(err)
	}

	entry := metacache.Entry{
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
	}
	if len(video.Thumbnails) > 0 {
		entry.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return entry, nil
}

func (y *YouTube) openDirect(ctx context.Context, ref track.Ref) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := y.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch direct stream: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		resp.Body.Close()
		return nil, fmt.Errorf("direct stream %s: %w", resp.Status, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("direct stream returned %s", resp.Status)
	}
	return resp.Body, nil
}

// classify maps extraction-client errors onto the not-found class where the
// failure is a property of the video rather than of the request.
func classify(err error) error {
	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return fmt.Errorf("%s: %w", playability.Reason, ErrNotFound)
	}
	return err
}
