package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TASKFLOW_SUPABASE_URL", "TASKFLOW_SUPABASE_ANON_KEY",
		"TASKFLOW_STORE_BACKEND", "TASKFLOW_STORE_DATABASE_URL",
		"TASKFLOW_LOG_LEVEL", "TASKFLOW_API_TIMEOUT", "TASKFLOW_IMPORT_RATE",
		"SUPABASE_URL", "SUPABASE_ANON_KEY",
		"VITE_SUPABASE_URL", "VITE_SUPABASE_ANON_KEY",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := New(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKFLOW_SUPABASE_URL", "https://demo.supabase.co/")
	t.Setenv("TASKFLOW_SUPABASE_ANON_KEY", "anon")
	t.Setenv("TASKFLOW_API_TIMEOUT", "3s")
	t.Setenv("TASKFLOW_LOG_LEVEL", "debug")

	cfg := newTestConfig(t)
	require.NoError(t, cfg.Load())

	assert.Equal(t, "https://demo.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon", cfg.SupabaseAnonKey)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendREST, cfg.StoreBackend)
	assert.Equal(t, DefaultImportRate, cfg.ImportRate)
}

func TestLoad_FromSettingsFile(t *testing.T) {
	clearEnv(t)
	cfg := newTestConfig(t)
	yaml := `supabase:
  url: https://file.supabase.co
  anon_key: file-key
store:
  backend: postgres
  database_url: postgres://localhost/taskflow
import:
  rate: 2
`
	require.NoError(t, os.WriteFile(cfg.SettingsPath(), []byte(yaml), 0600))

	require.NoError(t, cfg.Load())
	assert.Equal(t, "https://file.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "file-key", cfg.SupabaseAnonKey)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://localhost/taskflow", cfg.DatabaseURL)
	assert.Equal(t, 2.0, cfg.ImportRate)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	cfg := newTestConfig(t)
	require.NoError(t, os.WriteFile(cfg.SettingsPath(), []byte("supabase:\n  url: https://file.supabase.co\n  anon_key: k\n"), 0600))
	t.Setenv("TASKFLOW_SUPABASE_URL", "https://env.supabase.co")

	require.NoError(t, cfg.Load())
	assert.Equal(t, "https://env.supabase.co", cfg.SupabaseURL)
}

func TestLoad_ViteFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_SUPABASE_URL", "https://vite.supabase.co")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "vite-key")

	cfg := newTestConfig(t)
	require.NoError(t, cfg.Load())
	assert.Equal(t, "https://vite.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "vite-key", cfg.SupabaseAnonKey)
}

func TestLoad_DotEnvInConfigDir(t *testing.T) {
	clearEnv(t)
	cfg := newTestConfig(t)
	dotenv := "SUPABASE_URL=https://dotenv.supabase.co\nSUPABASE_ANON_KEY=dotenv-key\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, EnvFile), []byte(dotenv), 0600))
	t.Cleanup(func() {
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_ANON_KEY")
	})

	require.NoError(t, cfg.Load())
	assert.Equal(t, "https://dotenv.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "dotenv-key", cfg.SupabaseAnonKey)
}

func TestLoad_MissingURL(t *testing.T) {
	clearEnv(t)
	cfg := newTestConfig(t)

	err := cfg.Load()
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.EqualError(t, err, "missing required configuration: supabase.url")
}

func TestLoad_MissingAnonKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKFLOW_SUPABASE_URL", "https://demo.supabase.co")
	cfg := newTestConfig(t)

	err := cfg.Load()
	assert.EqualError(t, err, "missing required configuration: supabase.anon_key")
}

func TestValidate_PostgresNeedsDatabaseURL(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SupabaseURL = "https://demo.supabase.co"
	cfg.SupabaseAnonKey = "anon"
	cfg.StoreBackend = BackendPostgres

	assert.ErrorIs(t, cfg.Validate(), ErrMissingSetting)

	cfg.StoreBackend = "sqlite"
	assert.EqualError(t, cfg.Validate(), "invalid store.backend: sqlite (want rest or postgres)")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "supabase.anon_key", envKey("TASKFLOW_SUPABASE_ANON_KEY"))
	assert.Equal(t, "store.database_url", envKey("TASKFLOW_STORE_DATABASE_URL"))
	assert.Equal(t, "debug", envKey("TASKFLOW_DEBUG"))
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName), DefaultConfigDir())
}
