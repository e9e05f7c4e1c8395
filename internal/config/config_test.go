// file: internal/config/config_test.go
// version: 2.1.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestInitConfig tests configuration initialization with defaults
func TestInitConfig(t *testing.T) {
	viper.Reset()
	InitConfig()

	if AppConfig.MatchThreshold != 3 {
		t.Errorf("Expected match_threshold 3, got %d", AppConfig.MatchThreshold)
	}
	if AppConfig.MinQueryLength != 2 {
		t.Errorf("Expected min_query_length 2, got %d", AppConfig.MinQueryLength)
	}
	if AppConfig.SuggestionFetchLimit != 10 || AppConfig.SuggestionFetchLimitWithMatches != 5 {
		t.Errorf("Expected fetch limits 10/5, got %d/%d",
			AppConfig.SuggestionFetchLimit, AppConfig.SuggestionFetchLimitWithMatches)
	}
	if AppConfig.CategorySource != CategorySourceLocal {
		t.Errorf("Expected category_source 'local', got '%s'", AppConfig.CategorySource)
	}
	if AppConfig.CategoryLimit != 0 {
		t.Errorf("Expected category_limit 0, got %d", AppConfig.CategoryLimit)
	}
	if AppConfig.SimilarityThreshold != 0.3 {
		t.Errorf("Expected similarity_threshold 0.3, got %v", AppConfig.SimilarityThreshold)
	}
	if AppConfig.BackendCacheTTL != 30*time.Second {
		t.Errorf("Expected backend_cache_ttl 30s, got %v", AppConfig.BackendCacheTTL)
	}
	if AppConfig.RateLimitPerMinute != 600 || AppConfig.RateLimitBurst != 60 {
		t.Errorf("Expected rate limits 600/60, got %d/%d", AppConfig.RateLimitPerMinute, AppConfig.RateLimitBurst)
	}
	if AppConfig.Port != 8080 || AppConfig.Host != "localhost" {
		t.Errorf("Expected localhost:8080, got %s:%d", AppConfig.Host, AppConfig.Port)
	}
	if err := AppConfig.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

// TestInitConfigOverrides tests values set through viper
func TestInitConfigOverrides(t *testing.T) {
	viper.Reset()
	viper.Set("match_threshold", 5)
	viper.Set("category_source", CategorySourceRemote)
	viper.Set("backend_cache_ttl", "2m")
	viper.Set("collection_path", "/data/listings.yaml")

	InitConfig()

	if AppConfig.MatchThreshold != 5 {
		t.Errorf("Expected match_threshold 5, got %d", AppConfig.MatchThreshold)
	}
	if AppConfig.CategorySource != CategorySourceRemote {
		t.Errorf("Expected category_source 'remote', got '%s'", AppConfig.CategorySource)
	}
	if AppConfig.BackendCacheTTL != 2*time.Minute {
		t.Errorf("Expected backend_cache_ttl 2m, got %v", AppConfig.BackendCacheTTL)
	}
	if AppConfig.CollectionPath != "/data/listings.yaml" {
		t.Errorf("Expected collection_path override, got '%s'", AppConfig.CollectionPath)
	}
}

func TestValidate(t *testing.T) {
	viper.Reset()
	InitConfig()
	base := AppConfig

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"zero min length", func(c *Config) { c.MinQueryLength = 0 }},
		{"zero fetch limit", func(c *Config) { c.SuggestionFetchLimit = 0 }},
		{"unknown category source", func(c *Config) { c.CategorySource = "graphql" }},
		{"negative category limit", func(c *Config) { c.CategoryLimit = -1 }},
		{"similarity above one", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"zero similarity", func(c *Config) { c.SimilarityThreshold = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
