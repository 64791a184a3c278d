// Package config builds the run configuration of ckansync from .env files,
// an optional YAML config file and the environment.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/semantic"
)

// Environment keys.
const (
	KeyCKANURL              = "CKAN_URL"
	KeyAPIToken             = "API_TOKEN"
	KeyOrganizationListPath = "ORGANIZATION_LIST_PATH"
	KeyDatasetListPath      = "DATASET_LIST_PATH"
	KeyVocabularyListPath   = "VOCABULARY_LIST_PATH"
	KeyTagListPath          = "TAG_LIST_PATH"
	KeyGroupListPath        = "GROUP_LIST_PATH"
	KeyDataDir              = "DATA_DIR"
	KeyHTTPTimeout          = "HTTP_TIMEOUT"
	KeyHTTPRetries          = "HTTP_RETRIES"
	KeyVocabularyMissPolicy = "VOCABULARY_MISS_POLICY"
	KeyTagMaxReloads        = "TAG_MAX_RELOADS"
	KeyWatchTables          = "WATCH_TABLES"
	KeyPortals              = "portals"
)

// Defaults.
const (
	DefaultDataDir     = "./data"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHTTPRetries = 0
)

// DefaultPortals maps the portal directories under the data dir to the
// organization publishing them.
var DefaultPortals = map[string]string{
	// CKAN
	"opendata.alcoi.org":       "alcoi",
	"datosabiertos.torrent.es": "torrent",
	"datosabiertos.sagunto.es": "sagunto",
	"dadesobertes.seu-e.cat":   "aoc",
	"dadesobertes.gva.es":      "gva",

	// OpenDataSoft
	"valencia.opendatasoft.com": "valencia",
	"datosabiertos.dipcas.es":   "dipcas",

	// Statistics
	"servicios.ine.es": "ine",
}

// Config is the run configuration. It is built once and passed explicitly
// to the components that need it.
type Config struct {
	CKANURL  string
	APIToken string

	OrganizationListPath string
	DatasetListPath      string
	VocabularyListPath   string
	TagListPath          string
	GroupListPath        string // optional, only read by validate

	DataDir string
	Portals map[string]string // portal directory name -> organization name

	HTTPTimeout time.Duration
	HTTPRetries int

	VocabularyMissPolicy string
	TagMaxReloads        int
	WatchTables          bool

	ConfigFile string // config file used, if any
}

// LoadEnvFiles loads .env and then .env.local from the working directory.
// Variables already set in the environment are kept.
func LoadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// NewViper returns a viper instance suited to Load. Portal directory names
// contain dots, so keys are delimited with "::" instead.
func NewViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter("::"))
}

// Load reads the configuration through v. When configFile is empty a
// ckansync.yaml in the working directory is used if present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("file", "reading "+configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("ckansync")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("file", "reading ckansync.yaml", err)
			}
		}
	}

	cfg := &Config{
		CKANURL:              strings.TrimRight(GetString(v, KeyCKANURL), "/"),
		APIToken:             GetString(v, KeyAPIToken),
		OrganizationListPath: GetString(v, KeyOrganizationListPath),
		DatasetListPath:      GetString(v, KeyDatasetListPath),
		VocabularyListPath:   GetString(v, KeyVocabularyListPath),
		TagListPath:          GetString(v, KeyTagListPath),
		GroupListPath:        GetString(v, KeyGroupListPath),
		DataDir:              GetString(v, KeyDataDir),
		Portals:              v.GetStringMapString(KeyPortals),
		HTTPTimeout:          v.GetDuration(KeyHTTPTimeout),
		HTTPRetries:          v.GetInt(KeyHTTPRetries),
		VocabularyMissPolicy: GetString(v, KeyVocabularyMissPolicy),
		TagMaxReloads:        v.GetInt(KeyTagMaxReloads),
		WatchTables:          v.GetBool(KeyWatchTables),
		ConfigFile:           v.ConfigFileUsed(),
	}
	if len(cfg.Portals) == 0 {
		cfg.Portals = DefaultPortals
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataDir, DefaultDataDir)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyHTTPRetries, DefaultHTTPRetries)
	v.SetDefault(KeyTagMaxReloads, semantic.DefaultMaxReloads)
}

// GetString returns the value of key from v, falling back to the process
// environment when v has nothing for it.
func GetString(v *viper.Viper, key string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return strings.TrimSpace(os.Getenv(key))
}

// ValidateImport checks what an import run needs.
func (c *Config) ValidateImport() error {
	if c.CKANURL == "" {
		return missing(KeyCKANURL)
	}
	if c.APIToken == "" {
		return missing(KeyAPIToken)
	}
	if err := c.validateTables(); err != nil {
		return err
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfigError(KeyHTTPTimeout, "must be positive", nil)
	}
	if c.HTTPRetries < 0 {
		return errors.NewConfigError(KeyHTTPRetries, "must not be negative", nil)
	}
	if c.TagMaxReloads < 0 {
		return errors.NewConfigError(KeyTagMaxReloads, "must not be negative", nil)
	}
	return nil
}

// ValidateTables checks what the validate command needs.
func (c *Config) ValidateTables() error {
	return c.validateTables()
}

func (c *Config) validateTables() error {
	for _, kv := range [][2]string{
		{KeyOrganizationListPath, c.OrganizationListPath},
		{KeyDatasetListPath, c.DatasetListPath},
		{KeyVocabularyListPath, c.VocabularyListPath},
		{KeyTagListPath, c.TagListPath},
	} {
		if kv[1] == "" {
			return missing(kv[0])
		}
	}
	return nil
}

func missing(key string) error {
	return errors.NewConfigError(key, "not set", nil)
}

// PortalDirs returns the configured portal directories under the data dir,
// sorted by directory name.
func (c *Config) PortalDirs() []string {
	names := make([]string, 0, len(c.Portals))
	for name := range c.Portals {
		names = append(names, name)
	}
	slices.Sort(names)
	dirs := make([]string, 0, len(names))
	for _, name := range names {
		dirs = append(dirs, filepath.Join(c.DataDir, name))
	}
	return dirs
}

// OrganizationFor returns the organization publishing the portal directory
// dir. Only the last path element of dir is considered.
func (c *Config) OrganizationFor(dir string) (string, error) {
	base := filepath.Base(filepath.Clean(dir))
	if org, ok := c.Portals[base]; ok {
		return org, nil
	}
	if org, ok := c.Portals[strings.ToLower(base)]; ok {
		return org, nil
	}
	return "", errors.NewConfigError(KeyPortals, "no organization configured for directory "+base, nil)
}

// DatasetURL returns the catalog page of a dataset.
func (c *Config) DatasetURL(name string) string {
	return c.CKANURL + "/dataset/" + name
}
