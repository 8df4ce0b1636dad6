package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "jwt", cfg.IdentityMode)
	assert.Equal(t, "soft", cfg.UsageLimitPolicy)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.True(t, cfg.Supabase.RequireAudience)
	assert.Equal(t, 1.0, cfg.Otel.SampleRatio)
}

func TestLoadConfigEnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nUSAGE_LIMIT_POLICY=hard\nREDIS_ADDR=localhost:6379\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr(), "process env wins over the file")
	assert.Equal(t, "hard", cfg.UsageLimitPolicy)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)

	// godotenv.Load sets variables it read; clear them for other tests
	for _, k := range []string{"USAGE_LIMIT_POLICY", "REDIS_ADDR"} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadCatalogDefault(t *testing.T) {
	c, err := loadCatalog(Config{})
	require.NoError(t, err)
	assert.Len(t, c.Plans(), 3)

	_, err = loadCatalog(Config{PlansFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
