package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "taskline.db", cfg.DBPath)
	assert.Equal(t, "api-key", cfg.AuthMode)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 256, cfg.DirectoryCacheSize)
	assert.Equal(t, time.Minute, cfg.DirectoryCacheTTL)
	assert.Equal(t, "0 3 * * *", cfg.RetentionSchedule)
	assert.False(t, cfg.SlackEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DIRECTORY_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "jwt", cfg.AuthMode)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"api-key with key", Config{AuthMode: "api-key", APIKey: "k"}, false},
		{"api-key without key is fail-closed", Config{AuthMode: "api-key"}, false},
		{"jwt with secret", Config{AuthMode: "jwt", JWTSecret: "s"}, false},
		{"jwt without secret", Config{AuthMode: "jwt"}, true},
		{"none", Config{AuthMode: "none"}, false},
		{"unknown mode", Config{AuthMode: "basic"}, true},
		{"slack token without channel", Config{AuthMode: "none", SlackBotToken: "xoxb-1"}, true},
		{"slack fully configured", Config{AuthMode: "none", SlackBotToken: "xoxb-1", SlackChannel: "#tasks"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlackEnabled(t *testing.T) {
	cfg := Config{SlackBotToken: "xoxb-1", SlackChannel: "#tasks"}
	assert.True(t, cfg.SlackEnabled())

	cfg.SlackChannel = ""
	assert.False(t, cfg.SlackEnabled())
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
users:
  - id: admin-1
    name: Ada Admin
    email: ada@example.com
    org_id: org-1
    role: admin
  - id: pm-1
    name: Pat Manager
    org_id: org-1
    role: project_manager
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, "admin-1", seed.Users[0].ID)
	assert.Equal(t, "ada@example.com", seed.Users[0].Email)
	assert.Equal(t, "project_manager", seed.Users[1].Role)
}

func TestLoadSeed_Validation(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing-id.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("users:\n  - name: Nameless\n    org_id: org-1\n"), 0o644))
	_, err := LoadSeed(missing)
	assert.ErrorContains(t, err, "id is required")

	noOrg := filepath.Join(dir, "missing-org.yaml")
	require.NoError(t, os.WriteFile(noOrg, []byte("users:\n  - id: u1\n    name: Uma\n"), 0o644))
	_, err = LoadSeed(noOrg)
	assert.ErrorContains(t, err, "org_id is required")

	_, err = LoadSeed(filepath.Join(dir, "does-not-exist.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users: {not a list"), 0o644))
	_, err = LoadSeed(bad)
	assert.Error(t, err)
}
