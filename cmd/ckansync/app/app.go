// Package app provides the application context and dependency management
// for the ckansync CLI: configuration, logging and the lazily created
// catalog client shared by every command.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/ckansync/internal/ckan"
	"github.com/agentstation/ckansync/internal/cmd/application"
	"github.com/agentstation/ckansync/internal/config"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/reconciler"
)

// App represents the ckansync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Catalog client (lazy-initialized, singleton)
	mu      sync.RWMutex
	catalog reconciler.Catalog
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and ./ckansync.yaml; the
// --config flag reloads it from another file once flags are parsed.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = cfg

	logger := NewLogger(cfg)
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

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Settings returns the CLI settings.
func (a *App) Settings() *Config {
	return a.config
}

// Config returns the import configuration.
func (a *App) Config() *config.Config {
	return a.config.Config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format flag value.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Quiet reports whether -q was given.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool {
	return a.config.NoColor
}

// Catalog returns the CKAN client, creating it on first use.
func (a *App) Catalog() (reconciler.Catalog, error) {
	a.mu.RLock()
	if a.catalog != nil {
		c := a.catalog
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil {
		return a.catalog, nil
	}

	cfg := a.config.Config
	if cfg.CKANURL == "" {
		return nil, errors.NewConfigError(config.KeyCKANURL, "not set", nil)
	}
	a.catalog = ckan.New(ckan.Config{
		URL:     cfg.CKANURL,
		Token:   cfg.APIToken,
		Timeout: cfg.HTTPTimeout,
		Retries: cfg.HTTPRetries,
	})
	return a.catalog, nil
}

// reload reads the configuration again from configFile, keeping the CLI
// settings.
func (a *App) reload(configFile string) error {
	cfg, err := config.Load(config.NewViper(), configFile)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Config = cfg
	a.config.ConfigFile = configFile
	a.catalog = nil
	return nil
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

// WithCatalog sets a custom catalog (useful for testing).
func WithCatalog(c reconciler.Catalog) Option {
	return func(a *App) error {
		a.catalog = c
		return nil
	}
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)
