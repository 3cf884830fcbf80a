// Package config handles feedwatch configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/okholm/feedwatch/internal/models"
)

// Config is the root configuration structure for feedwatch.
type Config struct {
	// API settings for the remote feed source.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Account is the personal account settings.
	Account AccountConfig `yaml:"account" mapstructure:"account"`

	// Teams lists the team scopes to synchronize.
	Teams []TeamConfig `yaml:"teams" mapstructure:"teams"`

	// Sync settings for the refresh and pagination engine.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains remote feed source settings.
type APIConfig struct {
	// BaseURL is the feed API base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer token used for authentication.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AccountConfig identifies the personal account scope.
type AccountConfig struct {
	// Name is the account login; it doubles as the personal scope ID and
	// as the user match for self-category classification.
	Name string `yaml:"name" mapstructure:"name"`
}

// TeamConfig identifies one team scope.
type TeamConfig struct {
	// ID is the opaque team identifier sent on team-scoped queries.
	ID string `yaml:"id" mapstructure:"id"`

	// Name is the human-friendly team name.
	Name string `yaml:"name" mapstructure:"name"`
}

// SyncConfig contains refresh and pagination engine settings.
type SyncConfig struct {
	// RefreshInterval is how often the poller refreshes all scopes.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// PageSize is the fetch page size for forward and backward queries.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// CacheCap is the per-scope event cap applied on forward merges.
	CacheCap int `yaml:"cache_cap" mapstructure:"cache_cap"`

	// MinVisible is the minimum visible event count per filter category
	// before a follow-up backward fetch is issued.
	MinVisible int `yaml:"min_visible" mapstructure:"min_visible"`

	// RetryAttempts bounds the backward-pagination retry loop.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`

	// RetryBackoff is the base backoff between pagination retries.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// RetryBackoffCap caps the doubling backoff.
	RetryBackoffCap time.Duration `yaml:"retry_backoff_cap" mapstructure:"retry_backoff_cap"`

	// SufficiencyRetryDelay is how long to wait before re-running a
	// failed minimum-visible-count check.
	SufficiencyRetryDelay time.Duration `yaml:"sufficiency_retry_delay" mapstructure:"sufficiency_retry_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Account: AccountConfig{},
		Teams:   []TeamConfig{},
		Sync: SyncConfig{
			RefreshInterval:       60 * time.Second,
			PageSize:              30,
			CacheCap:              100,
			MinVisible:            10,
			RetryAttempts:         500,
			RetryBackoff:          250 * time.Millisecond,
			RetryBackoffCap:       5 * time.Second,
			SufficiencyRetryDelay: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Account.Name == "" {
		return fmt.Errorf("account.name is required")
	}
	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1s")
	}

	if c.Sync.PageSize < 1 {
		return fmt.Errorf("sync.page_size must be at least 1")
	}
	if c.Sync.CacheCap < c.Sync.PageSize {
		return fmt.Errorf("sync.cache_cap must be at least sync.page_size")
	}
	if c.Sync.MinVisible < 0 {
		return fmt.Errorf("sync.min_visible must not be negative")
	}
	if c.Sync.RefreshInterval < time.Second {
		return fmt.Errorf("sync.refresh_interval must be at least 1s")
	}
	if c.Sync.RetryAttempts < 1 {
		return fmt.Errorf("sync.retry_attempts must be at least 1")
	}
	if c.Sync.RetryBackoff <= 0 {
		return fmt.Errorf("sync.retry_backoff must be positive")
	}

	for i, team := range c.Teams {
		if team.ID == "" {
			return fmt.Errorf("teams[%d].id is required", i)
		}
	}

	return nil
}

// Scopes derives the scope list: the personal account first, then every
// configured team in list order.
func (c *Config) Scopes() []models.Scope {
	scopes := make([]models.Scope, 0, len(c.Teams)+1)
	scopes = append(scopes, models.Scope{
		ID:   c.Account.Name,
		Name: c.Account.Name,
	})
	for _, team := range c.Teams {
		name := team.Name
		if name == "" {
			name = team.ID
		}
		scopes = append(scopes, models.Scope{
			ID:     team.ID,
			Name:   name,
			IsTeam: true,
		})
	}
	return scopes
}
