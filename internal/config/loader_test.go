package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
api:
  base_url: https://feeds.example.com
  token: test-token
account:
  name: alice
teams:
  - id: team-platform
    name: Platform
  - id: team-infra
sync:
  refresh_interval: 30s
  page_size: 30
logging:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://feeds.example.com", cfg.API.BaseURL)
	assert.Equal(t, "alice", cfg.Account.Name)
	assert.Equal(t, 30*time.Second, cfg.Sync.RefreshInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults fill in everything the file omits.
	assert.Equal(t, 100, cfg.Sync.CacheCap)
	assert.Equal(t, 10, cfg.Sync.MinVisible)
	assert.Equal(t, 500, cfg.Sync.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sync.SufficiencyRetryDelay)

	require.Len(t, cfg.Teams, 2)
	assert.Equal(t, "team-platform", cfg.Teams[0].ID)
	assert.Equal(t, "Platform", cfg.Teams[0].Name)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing base url",
			content: `
account:
  name: alice
`,
			wantErr: "api.base_url is required",
		},
		{
			name: "missing account",
			content: `
api:
  base_url: https://feeds.example.com
`,
			wantErr: "account.name is required",
		},
		{
			name: "cache cap below page size",
			content: `
api:
  base_url: https://feeds.example.com
account:
  name: alice
sync:
  page_size: 30
  cache_cap: 10
`,
			wantErr: "sync.cache_cap",
		},
		{
			name: "team without id",
			content: `
api:
  base_url: https://feeds.example.com
account:
  name: alice
teams:
  - name: Platform
`,
			wantErr: "teams[0].id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScopes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account.Name = "alice"
	cfg.Teams = []TeamConfig{
		{ID: "team-platform", Name: "Platform"},
		{ID: "team-infra"},
	}

	scopes := cfg.Scopes()
	require.Len(t, scopes, 3)

	assert.Equal(t, "alice", scopes[0].ID)
	assert.False(t, scopes[0].IsTeam)

	assert.Equal(t, "team-platform", scopes[1].ID)
	assert.Equal(t, "Platform", scopes[1].Name)
	assert.True(t, scopes[1].IsTeam)

	// Team name falls back to the ID.
	assert.Equal(t, "team-infra", scopes[2].Name)
}
