// file: internal/config/config.go
// version: 2.1.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Category suggestion sources accepted by category_source
const (
	CategorySourceLocal  = "local"
	CategorySourceRemote = "remote"
)

// Config holds application configuration
type Config struct {
	CollectionPath string `yaml:"collection_path"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`

	// Search orchestration
	MatchThreshold                  int    `yaml:"match_threshold"`
	MinQueryLength                  int    `yaml:"min_query_length"`
	SuggestionFetchLimit            int    `yaml:"suggestion_fetch_limit"`
	SuggestionFetchLimitWithMatches int    `yaml:"suggestion_fetch_limit_with_matches"`
	CategorySource                  string `yaml:"category_source"`
	CategoryLimit                   int    `yaml:"category_limit"`

	// In-process backend
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	BackendCacheTTL     time.Duration `yaml:"backend_cache_ttl"`

	// HTTP rate limiting
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`

	LogLevel string `yaml:"log_level"`
}

var AppConfig Config

// SetDefaults registers default values with viper
func SetDefaults() {
	viper.SetDefault("collection_path", "")
	viper.SetDefault("host", "localhost")
	viper.SetDefault("port", 8080)
	viper.SetDefault("match_threshold", 3)
	viper.SetDefault("min_query_length", 2)
	viper.SetDefault("suggestion_fetch_limit", 10)
	viper.SetDefault("suggestion_fetch_limit_with_matches", 5)
	viper.SetDefault("category_source", CategorySourceLocal)
	viper.SetDefault("category_limit", 0)
	viper.SetDefault("similarity_threshold", 0.3)
	viper.SetDefault("backend_cache_ttl", 30*time.Second)
	viper.SetDefault("rate_limit_per_minute", 600)
	viper.SetDefault("rate_limit_burst", 60)
	viper.SetDefault("log_level", "info")
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()

	AppConfig = Config{
		CollectionPath:                  viper.GetString("collection_path"),
		Host:                            viper.GetString("host"),
		Port:                            viper.GetInt("port"),
		MatchThreshold:                  viper.GetInt("match_threshold"),
		MinQueryLength:                  viper.GetInt("min_query_length"),
		SuggestionFetchLimit:            viper.GetInt("suggestion_fetch_limit"),
		SuggestionFetchLimitWithMatches: viper.GetInt("suggestion_fetch_limit_with_matches"),
		CategorySource:                  viper.GetString("category_source"),
		CategoryLimit:                   viper.GetInt("category_limit"),
		SimilarityThreshold:             viper.GetFloat64("similarity_threshold"),
		BackendCacheTTL:                 viper.GetDuration("backend_cache_ttl"),
		RateLimitPerMinute:              viper.GetInt("rate_limit_per_minute"),
		RateLimitBurst:                  viper.GetInt("rate_limit_burst"),
		LogLevel:                        viper.GetString("log_level"),
	}

	// Normalize category source
	if AppConfig.CategorySource == "" {
		AppConfig.CategorySource = CategorySourceLocal
	}
}

// Validate reports the first setting that cannot be used
func (c Config) Validate() error {
	switch {
	case c.MatchThreshold < 1:
		return fmt.Errorf("match_threshold must be at least 1, got %d", c.MatchThreshold)
	case c.MinQueryLength < 1:
		return fmt.Errorf("min_query_length must be at least 1, got %d", c.MinQueryLength)
	case c.SuggestionFetchLimit < 1 || c.SuggestionFetchLimitWithMatches < 1:
		return fmt.Errorf("suggestion fetch limits must be positive")
	case c.CategorySource != CategorySourceLocal && c.CategorySource != CategorySourceRemote:
		return fmt.Errorf("category_source must be %q or %q, got %q", CategorySourceLocal, CategorySourceRemote, c.CategorySource)
	case c.CategoryLimit < 0:
		return fmt.Errorf("category_limit must not be negative")
	case c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1:
		return fmt.Errorf("similarity_threshold must be within (0, 1], got %v", c.SimilarityThreshold)
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}
