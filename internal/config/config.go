// Package config resolves the remote archive endpoints and client timeouts
// from the environment. CLI flags override on top of these values.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the archive endpoints and client timeouts. Defaults point at
// the NCBI PubMed baseline archive.
type Config struct {
	BaseURL     string        `env:"PUBMED_BASE_URL" envDefault:"https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/"`
	FTPAddr     string        `env:"PUBMED_FTP_ADDR" envDefault:"ftp.ncbi.nlm.nih.gov:21"`
	FTPDir      string        `env:"PUBMED_FTP_DIR" envDefault:"/pubmed/baseline/"`
	HTTPTimeout time.Duration `env:"PUBMED_HTTP_TIMEOUT" envDefault:"30s"`
	FTPTimeout  time.Duration `env:"PUBMED_FTP_TIMEOUT" envDefault:"30s"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}
