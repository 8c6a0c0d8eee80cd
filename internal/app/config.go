package app

import (
	"errors"

	"github.com/vk/floodpath/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // .hcl / .yaml files or directories
	Overrides   Overrides

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Summary         bool
	// EnvFiles are .env files read for S3 settings; missing files are skipped.
	EnvFiles []string
}

// Overrides are run settings given on the command line. Nil fields leave
// the loaded configuration untouched.
type Overrides struct {
	DuplicatePaths *bool
	FirstPoint     *bool
	Workers        *int
	OutputPath     *string
	Format         *string
}

// Apply writes every set override into m.
func (o Overrides) Apply(m *config.Model) {
	if o.DuplicatePaths != nil {
		m.Analysis.DuplicatePaths = *o.DuplicatePaths
	}
	if o.FirstPoint != nil {
		m.Analysis.FirstPoint = *o.FirstPoint
	}
	if o.Workers != nil {
		m.Analysis.Workers = *o.Workers
	}
	if o.OutputPath != nil {
		m.Output.Path = *o.OutputPath
	}
	if o.Format != nil {
		m.Output.Format = *o.Format
	}
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	return &cfg, nil
}
