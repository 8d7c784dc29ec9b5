// Package app provides the application context and dependency management
// for the cdmforge CLI: configuration loading, logger setup, and builder
// construction shared across commands.
package app

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/cdmforge"
	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/match"
)

// App represents the cdmforge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Builder constructs a cdmforge Builder from the app configuration plus
// any extra options the command supplies.
func (a *App) Builder(extra ...cdmforge.Option) (cdmforge.Builder, error) {
	opts := a.buildOptions()
	opts = append(opts, extra...)
	return cdmforge.New(opts...)
}

// buildOptions constructs builder options from the app configuration.
func (a *App) buildOptions() []cdmforge.Option {
	opts := []cdmforge.Option{
		cdmforge.WithDomain(a.config.Domain),
	}

	if a.config.DomainDescription != "" {
		opts = append(opts, cdmforge.WithDomainDescription(a.config.DomainDescription))
	}
	if a.config.FoundationFile != "" {
		opts = append(opts, cdmforge.WithFoundationFile(a.config.FoundationFile))
	}
	if a.config.FoundationDir != "" {
		opts = append(opts, cdmforge.WithFoundationDir(a.config.FoundationDir))
	}
	if a.config.SourcesDir != "" {
		opts = append(opts, cdmforge.WithSourcesDir(a.config.SourcesDir))
	}
	if a.config.OutputDir != "" {
		opts = append(opts, cdmforge.WithOutputDir(a.config.OutputDir))
	}
	if len(a.config.SourcesToMap) > 0 {
		opts = append(opts, cdmforge.WithSourcesToMap(a.config.SourcesToMap...))
	}
	if a.config.SkipMatching {
		opts = append(opts, cdmforge.WithSkipMatching(true))
	}
	if a.config.ReuseMatches {
		opts = append(opts, cdmforge.WithMatchFileReuse(true))
	}

	return opts
}

// offlineMatcher returns the deterministic name matcher used when no model
// is configured.
func offlineMatcher() match.Matcher {
	return match.NewNameMatcher()
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
