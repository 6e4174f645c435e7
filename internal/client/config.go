package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config points the client at a running API server.
type Config struct {
	ServerURL       string        `env:"NUTRI_SERVER_URL, default=http://127.0.0.1:8080"`
	Timeout         time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	ZstdCompression bool          `env:"CLIENT_ZSTD, default=true"`
	MaxRetries      int           `env:"CLIENT_MAX_RETRIES, default=3"`
	RetryWaitMin    time.Duration `env:"CLIENT_RETRY_WAIT_MIN, default=500ms"`
	RetryWaitMax    time.Duration `env:"CLIENT_RETRY_WAIT_MAX, default=10s"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process client environment: %w", err)
	}
	return &cfg, nil
}
