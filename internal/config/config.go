// Package config loads runtime settings from the environment (optionally via
// a .env file) and classifier keyword overrides from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/statement-import/internal/ingest"
)

// Config holds server and processing settings.
type Config struct {
	// Port is the HTTP listen port.
	Port string
	// LogLevel is the zerolog level name.
	LogLevel string
	// MaxUploadBytes caps the size of an uploaded statement file.
	MaxUploadBytes int64
	// KeywordsFile optionally points at a YAML file overriding the
	// classifier's header vocabularies.
	KeywordsFile string
}

const defaultMaxUploadBytes = 10 << 20 // 10 MiB

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; missing settings fall back to
// defaults.
func Load() Config {
	// Ignore the error: a missing .env file just means plain env vars.
	_ = godotenv.Load()

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		MaxUploadBytes: defaultMaxUploadBytes,
		KeywordsFile:   os.Getenv("CLASSIFIER_KEYWORDS_FILE"),
	}

	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// keywordsFile mirrors the YAML layout:
//
//	keywords:
//	  date: ["date", "booked"]
//	  debit: ["paid out"]
type keywordsFile struct {
	Keywords ingest.KeywordSets `yaml:"keywords"`
}

// LoadKeywords reads classifier keyword overrides from a YAML file. Roles
// absent from the file keep the built-in defaults.
func LoadKeywords(path string) (ingest.KeywordSets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.KeywordSets{}, fmt.Errorf("LoadKeywords: %w", err)
	}
	var kf keywordsFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return ingest.KeywordSets{}, fmt.Errorf("LoadKeywords: parsing %s: %w", path, err)
	}
	return kf.Keywords, nil
}

// NewClassifier builds the classifier for this configuration, applying the
// keyword override file when one is configured.
func (c Config) NewClassifier() (*ingest.Classifier, error) {
	if c.KeywordsFile == "" {
		return ingest.NewClassifier(), nil
	}
	ks, err := LoadKeywords(c.KeywordsFile)
	if err != nil {
		return nil, err
	}
	return ingest.NewClassifierWithKeywords(ks), nil
}
