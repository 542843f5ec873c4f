// Package config loads azxfer settings from the environment.
package config

import (
	"github.com/caarlos0/env/v9"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cloudfs/azxfer/internal/model"
)

// Config holds every setting a transfer needs. Command-line flags
// override these after Load.
type Config struct {
	SourceURL  string `env:"AZXFER_SOURCE_URL"`
	SourceSAS  string `env:"AZXFER_SOURCE_SAS"`
	DestURL    string `env:"AZXFER_DEST_URL"`
	DestSAS    string `env:"AZXFER_DEST_SAS"`
	LogDir     string `env:"AZXFER_LOG_DIR" envDefault:"./azcopy_logs"`
	AzcopyPath string `env:"AZXFER_AZCOPY_PATH" envDefault:"azcopy"`
	Preflight  bool   `env:"AZXFER_PREFLIGHT" envDefault:"false"`
	LogLevel   string `env:"AZXFER_LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	return cfg, nil
}

// Request builds the transfer request described by the config.
func (c *Config) Request() *model.TransferRequest {
	return &model.TransferRequest{
		SourceLocation:        c.SourceURL,
		SourceCredential:      c.SourceSAS,
		DestinationLocation:   c.DestURL,
		DestinationCredential: c.DestSAS,
		LogDirectory:          c.LogDir,
	}
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
