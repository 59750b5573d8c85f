// Package config loads service configuration from an optional TOML file with
// environment-variable overrides. Environment always wins over the file so
// deployments can tweak a setting without editing config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds everything the services need to run.
type Config struct {
	// Port is the HTTP listen port of the API server.
	Port string `toml:"port"`

	// ProjectID and DatasetID locate the BigQuery dataset.
	ProjectID string `toml:"project_id"`
	DatasetID string `toml:"dataset_id"`

	// Bucket is the GCS bucket for uploaded statement files.
	Bucket string `toml:"bucket"`

	// GeminiModel is the model name used for transaction classification.
	// Empty disables remote classification; the keyword fallback still runs.
	GeminiModel string `toml:"gemini_model"`

	// DefaultUserID is used when a request carries no user identity.
	DefaultUserID string `toml:"default_user_id"`

	// CategoryCacheTTL bounds how long the category vocabulary is cached.
	CategoryCacheTTL       time.Duration `toml:"-"`
	CategoryCacheTTLString string        `toml:"category_cache_ttl"`

	// MaxUploadBytes caps the size of a single statement upload.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

const (
	defaultPort           = "8080"
	defaultDatasetID      = "budgetwise"
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultUserID         = "default"
	defaultCacheTTL       = 5 * time.Minute
	defaultMaxUploadBytes = 10 << 20
)

// Load reads the TOML file at path (skipped when path is empty or missing),
// applies environment overrides and fills in defaults.
func Load(path string) (*Config, error) {
	conf := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, conf); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	conf.parseEnv()

	if conf.CategoryCacheTTLString != "" {
		ttl, err := time.ParseDuration(conf.CategoryCacheTTLString)
		if err != nil {
			return nil, fmt.Errorf("config: invalid category_cache_ttl %q: %w", conf.CategoryCacheTTLString, err)
		}
		conf.CategoryCacheTTL = ttl
	}

	conf.applyDefaults()

	return conf, nil
}

func (c *Config) parseEnv() {
	if v := os.Getenv("BUDGETWISE_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("BUDGETWISE_PROJECT_ID"); v != "" {
		c.ProjectID = v
	}
	if v := os.Getenv("BUDGETWISE_DATASET_ID"); v != "" {
		c.DatasetID = v
	}
	if v := os.Getenv("BUDGETWISE_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("BUDGETWISE_GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv("BUDGETWISE_USER_ID"); v != "" {
		c.DefaultUserID = v
	}
	if v := os.Getenv("BUDGETWISE_CATEGORY_CACHE_TTL"); v != "" {
		c.CategoryCacheTTLString = v
	}
	if v := os.Getenv("BUDGETWISE_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.DatasetID == "" {
		c.DatasetID = defaultDatasetID
	}
	if c.GeminiModel == "" {
		c.GeminiModel = defaultGeminiModel
	}
	if c.DefaultUserID == "" {
		c.DefaultUserID = defaultUserID
	}
	if c.CategoryCacheTTL == 0 {
		c.CategoryCacheTTL = defaultCacheTTL
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
}
