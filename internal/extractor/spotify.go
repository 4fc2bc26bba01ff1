package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SearchQuery is the title/artist pair a catalog item maps to. Catalog links
// are never streamable; they are substituted via search.
type SearchQuery struct {
	Title  string
	Artist string
}

// Spotify looks up titles and artists for catalog links using the Web API
// with client-credentials auth. Calls are rate limited so playlist
// expansion cannot hammer the API.
type Spotify struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

// SpotifyOption overrides a default of NewSpotify.
type SpotifyOption func(*Spotify)

// WithSpotifyBaseURL points the client at base instead of the public API.
func WithSpotifyBaseURL(base string) SpotifyOption {
	return func(s *Spotify) { s.baseURL = base }
}

// WithSpotifyHTTPClient substitutes the HTTP client, bypassing the
// client-credentials transport.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *Spotify) { s.http = c }
}

// NewSpotify builds a client. requestsPerSecond bounds API call rate;
// zero or less defaults to 10.
func NewSpotify(ctx context.Context, clientID, clientSecret string, requestsPerSecond float64, opts ...SpotifyOption) *Spotify {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	s := &Spotify{
		http:    conf.Client(ctx),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		baseURL: spotifyBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
}

type spotifyPlaylistItem struct {
	Track spotifyTrack `json:"track"`
}

type spotifyPlaylistPage struct {
	Items []spotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
}

type spotifyAlbumPage struct {
	Items []spotifyTrack `json:"items"`
	Next  *string        `json:"next"`
}

// Queries returns the search queries for a Spotify link: one for a track
// link, one per member for playlist and album links, in listed order.
func (s *Spotify) Queries(ctx context.Context, link string) ([]SearchQuery, error) {
	kind, id, ok := SpotifyKind(link)
	if !ok {
		return nil, fmt.Errorf("not a spotify link: %s", link)
	}

	switch kind {
	case "track":
		q, err := s.trackQuery(ctx, id)
		if err != nil {
			return nil, err
		}
		return []SearchQuery{q}, nil
	case "playlist":
		return s.playlistQueries(ctx, id)
	case "album":
		return s.albumQueries(ctx, id)
	default:
		return nil, fmt.Errorf("unsupported spotify kind: %s", kind)
	}
}

func (s *Spotify) trackQuery(ctx context.Context, id string) (SearchQuery, error) {
	var t spotifyTrack
	if err := s.getJSON(ctx, fmt.Sprintf("%s/tracks/%s", s.baseURL, id), &t); err != nil {
		return SearchQuery{}, err
	}
	return trackToQuery(t), nil
}

func (s *Spotify) playlistQueries(ctx context.Context, id string) ([]SearchQuery, error) {
	var queries []SearchQuery
	next := fmt.Sprintf("%s/playlists/%s/tracks?limit=100", s.baseURL, id)
	for next != "" {
		var page spotifyPlaylistPage
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track.Name == "" {
				continue
			}
			queries = append(queries, trackToQuery(item.Track))
		}
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return queries, nil
}

func (s *Spotify) albumQueries(ctx context.Context, id string) ([]SearchQuery, error) {
	var queries []SearchQuery
	next := fmt.Sprintf("%s/albums/%s/tracks?limit=50", s.baseURL, id)
	for next != "" {
		var page spotifyAlbumPage
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, t := range page.Items {
			if t.Name == "" {
				continue
			}
			queries = append(queries, trackToQuery(t))
		}
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return queries, nil
}

func (s *Spotify) getJSON(ctx context.Context, url string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("spotify resource not found: %w", ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func trackToQuery(t spotifyTrack) SearchQuery {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return SearchQuery{Title: t.Name, Artist: strings.Join(names, " ")}
}
