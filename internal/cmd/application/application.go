// Package application defines what commands need from the running CLI.
// The App in cmd/ckansync/app implements it; tests use Mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ckansync/internal/config"
	"github.com/agentstation/ckansync/pkg/reconciler"
)

// Application is the dependency set handed to every command.
type Application interface {
	// Config returns the loaded configuration.
	Config() *config.Config

	// Catalog returns the destination catalog, creating the client on
	// first use.
	Catalog() (reconciler.Catalog, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the requested output format (table, wide,
	// json, yaml), or "" to detect it.
	OutputFormat() string

	// Quiet reports whether status notices are suppressed.
	Quiet() bool

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
