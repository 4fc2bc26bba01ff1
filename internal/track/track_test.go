package track_test

import (
	"testing"
	"time"

	"github.com/JankoV12/dis-track/internal/track"
)

func TestDeferredRef(t *testing.T) {
	tc := []struct {
		name     string
		ref      track.Ref
		deferred bool
		query    string
	}{
		{
			name:     "direct url",
			ref:      track.Ref("https://www.youtube.com/watch?v=dQw4w9WgXcQ"),
			deferred: false,
			query:    "",
		},
		{
			name:     "deferred search ref",
			ref:      track.DeferredRef("Never Gonna Give You Up", "Rick Astley"),
			deferred: true,
			query:    "Never Gonna Give You Up Rick Astley",
		},
		{
			name:     "deferred with empty artist",
			ref:      track.DeferredRef("Song Title", ""),
			deferred: true,
			query:    "Song Title",
		},
	}

	for _, test := range tc {
		t.Run(test.name, func(t *testing.T) {
			if got := test.ref.Deferred(); got != test.deferred {
				t.Errorf("Deferred() = %v, want %v", got, test.deferred)
			}
			if got := test.ref.Query(); got != test.query {
				t.Errorf("Query() = %q, want %q", got, test.query)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		input time.Duration
		want  string
	}{
		{0, ""},
		{42 * time.Second, "0:42"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, test := range tc {
		if got := track.FormatDuration(test.input); got != test.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", test.input, got, test.want)
		}
	}
}
