package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDefaultsWithoutFile(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, EngineModeLocal, cfg.EngineMode)
	assert.Equal(t, 18, cfg.EngineDepth)
	assert.Equal(t, EvalStoreNone, cfg.EvalStore)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout())
	assert.Equal(t, 24*time.Hour, cfg.EvalCacheTTL())
	assert.Empty(t, cfg.EngineArgList())
}

func TestSetupReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ENGINE_MODE=remote\nENGINE_DEPTH=12\nENGINE_ARGS=\"--threads 2\"\nEVAL_STORE=redis\nLOCAL_CORS=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Setup(path)
	require.NoError(t, err)

	assert.Equal(t, EngineModeRemote, cfg.EngineMode)
	assert.Equal(t, 12, cfg.EngineDepth)
	assert.Equal(t, []string{"--threads", "2"}, cfg.EngineArgList())
	assert.Equal(t, EvalStoreRedis, cfg.EvalStore)
	assert.True(t, cfg.IsLocalCors)
}

func TestSetupEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9000\n"), 0o600))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Setup(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.ServerPort)
}
