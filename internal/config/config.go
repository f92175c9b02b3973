// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"flag"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Options holds the configuration values for the client.
//
// Values are loaded from environment variables (after an optional .env
// file) and may be overridden by command-line flags.
type Options struct {
	// BaseURL is the base URL of the Wiki API, including the /api prefix.
	BaseURL string `env:"WIKI_BASE_URL" envDefault:"http://localhost:3000/api"`

	// TimeoutMS is the per-request timeout in milliseconds.
	TimeoutMS int `env:"WIKI_TIMEOUT_MS" envDefault:"5000"`

	// StorePath is the path of the persisted session file.
	StorePath string `env:"WIKI_STORE" envDefault:"session.json"`

	// LogLevel is the zap log level ("debug", "info", "warn", "error").
	LogLevel string `env:"WIKI_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and the environment into an Options,
// then applies guardrails. It does not touch command-line flags.
func Load() (*Options, error) {
	_ = godotenv.Load()

	opts := &Options{}
	if err := env.Parse(opts); err != nil {
		return nil, err
	}
	opts.Sanitize()
	return opts, nil
}

// Parse loads configuration from the environment and overrides it with
// command-line flags. Intended to be called once from main.
func Parse() (*Options, error) {
	opts, err := Load()
	if err != nil {
		return nil, err
	}

	flag.StringVar(&opts.BaseURL, "url", opts.BaseURL, "wiki API base URL")
	flag.StringVar(&opts.StorePath, "store", opts.StorePath, "path to the session file")
	flag.StringVar(&opts.LogLevel, "level", opts.LogLevel, "log level")
	flag.Parse()

	opts.Sanitize()
	return opts, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (o *Options) Sanitize() {
	if o.TimeoutMS <= 0 {
		o.TimeoutMS = 5000
	}
	if o.StorePath == "" {
		o.StorePath = "session.json"
	}
}

// Timeout returns the request timeout as a duration.
func (o *Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMS) * time.Millisecond
}
