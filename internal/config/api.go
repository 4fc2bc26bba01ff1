package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type APIConfig struct {
	Addr string `env:"API_ADDR, default=:8383"`
}

func NewAPIConfigFromEnv() (*APIConfig, error) {
	var cfg APIConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
