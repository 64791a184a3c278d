package app

import (
	"os"

	"github.com/agentstation/ckansync/internal/config"
)

// Config holds the CLI settings on top of the import configuration loaded
// from the config file, environment variables and .env files.
type Config struct {
	*config.Config

	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// ConfigFile is the --config flag; the file actually read is
	// Config.Config.ConfigFile.
	ConfigFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables
//  3. .env and .env.local files
//  4. Config file (configFile, or ./ckansync.yaml when present)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	config.LoadEnvFiles()

	cfg, err := config.Load(config.NewViper(), configFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		Config:     cfg,
		ConfigFile: configFile,
		NoColor:    os.Getenv("NO_COLOR") != "",
		Format:     os.Getenv("OUTPUT_FORMAT"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		LogFormat:  getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:  getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
