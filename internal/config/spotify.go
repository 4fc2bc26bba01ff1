package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// SpotifyConfig carries client-credentials for the Spotify Web API.
// Spotify links cannot be streamed directly; the bot only uses the API to
// look up titles and artists for search substitution.
type SpotifyConfig struct {
	ClientID     string `env:"SPOTIFY_CLIENT_ID, required"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET, required"`
	// RequestsPerSecond throttles API calls during playlist expansion.
	RequestsPerSecond float64 `env:"SPOTIFY_REQUESTS_PER_SECOND, default=10"`
}

func NewSpotifyConfigFromEnv() (*SpotifyConfig, error) {
	var cfg SpotifyConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
