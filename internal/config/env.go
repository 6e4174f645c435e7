// Package config defines environment configuration structs and loaders.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	PipelineEnvConfig
	DataEnvConfig
	ServerEnvConfig
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PipelineEnvConfig holds the parameters of one scoring and clustering run.
type PipelineEnvConfig struct {
	K            int     `env:"NUTRI_K" envDefault:"4"`
	Seed         uint64  `env:"NUTRI_SEED" envDefault:"42"`
	MaxIter      int     `env:"NUTRI_MAX_ITER" envDefault:"300"`
	FeatureSpace string  `env:"NUTRI_FEATURE_SPACE" envDefault:"scaled"`
	Weights      string  `env:"NUTRI_WEIGHTS"` // e.g. "protein=1.2,fat=-1"
	FillMissing  bool    `env:"NUTRI_FILL_MISSING" envDefault:"true"`
	FillValue    float64 `env:"NUTRI_FILL_VALUE" envDefault:"0"`
}

// DataEnvConfig points at the dataset and the export sink.
type DataEnvConfig struct {
	InputPath  string `env:"DATASET_PATH" envDefault:"data/food_nutrition_dataset.csv"`
	OutputPath string `env:"EXPORT_PATH" envDefault:"data/food_nutrition_scored_clustered.csv"`
	TopN       int    `env:"TOP_N" envDefault:"15"`
}

// ServerEnvConfig configures the HTTP API.
type ServerEnvConfig struct {
	Host          string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port          int           `env:"SERVER_PORT" envDefault:"8080"`
	BodySizeLimit int           `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
	ReadTimeout   time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	// ShutdownTimeout bounds the graceful shutdown; open connections are
	// closed forcibly once it passes.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// IsProd reports whether the configured environment is production.
func (c *AppConfig) IsProd() bool {
	return strings.EqualFold(c.Environment, "prod")
}
