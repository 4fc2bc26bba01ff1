package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/JankoV12/dis-track/internal/track"
)

var spotifyPattern = regexp.MustCompile(`open\.spotify\.com/(?:intl-[a-z]+/)?(track|playlist|album)/([A-Za-z0-9]+)`)

// WatchRef builds the canonical watch URL for a YouTube video id.
func WatchRef(videoID string) track.Ref {
	return track.Ref("https://www.youtube.com/watch?v=" + videoID)
}

// IsYouTubeLink reports whether link points at a YouTube host.
func IsYouTubeLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "youtu.be", "music.youtube.com", "m.youtube.com":
		return true
	}
	return false
}

// IsYouTubePlaylist reports whether link carries a playlist marker.
func IsYouTubePlaylist(link string) bool {
	if !IsYouTubeLink(link) {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Query().Get("list") != "" || strings.Contains(u.Path, "/playlist")
}

// SpotifyKind classifies a Spotify catalog link into its kind ("track",
// "playlist", "album") and id. ok is false for non-Spotify links.
func SpotifyKind(link string) (kind, id string, ok bool) {
	m := spotifyPattern.FindStringSubmatch(link)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
