package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type PlayerConfig struct {
	// InactivityTimeout is how long a guild may sit idle with an empty
	// queue before the voice attachment is torn down.
	InactivityTimeout time.Duration `env:"PLAYER_INACTIVITY_TIMEOUT, default=180s"`

	// AttachTimeout bounds the wait for a voice connection to become ready.
	AttachTimeout time.Duration `env:"PLAYER_ATTACH_TIMEOUT, default=30s"`

	// FailureThreshold is the number of consecutive unexpected stream
	// failures tolerated while advancing the queue before the counter resets.
	FailureThreshold int `env:"PLAYER_FAILURE_THRESHOLD, default=3"`

	// MetadataCacheSize bounds the in-memory metadata cache.
	MetadataCacheSize int `env:"PLAYER_METADATA_CACHE_SIZE, default=1024"`
}

func NewPlayerConfigFromEnv() (*PlayerConfig, error) {
	var cfg PlayerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
