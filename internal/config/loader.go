package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables mapped onto settings.
const EnvPrefix = "TASKFLOW_"

const maxSettingsFileSize = 1024 * 1024

// ErrMissingSetting is returned by Load when a required value is absent.
var ErrMissingSetting = errors.New("missing required configuration")

// settings mirrors config.yaml.
type settings struct {
	Supabase struct {
		URL     string `koanf:"url"`
		AnonKey string `koanf:"anon_key"`
	} `koanf:"supabase"`
	Store struct {
		Backend     string `koanf:"backend"`
		DatabaseURL string `koanf:"database_url"`
	} `koanf:"store"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	API struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"api"`
	Import struct {
		Rate float64 `koanf:"rate"`
	} `koanf:"import"`
}

// Load reads settings from config.yaml, dotenv files and the environment,
// then validates them.
//
// Precedence (highest to lowest):
//  1. TASKFLOW_* environment variables (TASKFLOW_SUPABASE_URL -> supabase.url)
//  2. .env in the working directory, then .env in the config directory
//  3. config.yaml in the config directory
//  4. Defaults
//
// SUPABASE_URL/SUPABASE_ANON_KEY and their VITE_ prefixed forms are
// accepted when the prefixed variables are absent.
func (c *Config) Load() error {
	k := koanf.New(".")

	if err := loadSettingsFile(k, c.SettingsPath()); err != nil {
		return err
	}

	for _, path := range []string{EnvFile, filepath.Join(c.Dir, EnvFile)} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s settings
	if err := k.Unmarshal("", &s); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	c.SupabaseURL = strings.TrimRight(firstNonEmpty(s.Supabase.URL, os.Getenv("SUPABASE_URL"), os.Getenv("VITE_SUPABASE_URL")), "/")
	c.SupabaseAnonKey = firstNonEmpty(s.Supabase.AnonKey, os.Getenv("SUPABASE_ANON_KEY"), os.Getenv("VITE_SUPABASE_ANON_KEY"))
	if s.Store.Backend != "" {
		c.StoreBackend = strings.ToLower(s.Store.Backend)
	}
	c.DatabaseURL = firstNonEmpty(s.Store.DatabaseURL, c.DatabaseURL)
	if s.Log.Level != "" {
		c.LogLevel = s.Log.Level
	}
	if s.API.Timeout > 0 {
		c.APITimeout = s.API.Timeout
	}
	if s.Import.Rate > 0 {
		c.ImportRate = s.Import.Rate
	}

	return c.Validate()
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("%w: supabase.url", ErrMissingSetting)
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("%w: supabase.anon_key", ErrMissingSetting)
	}
	switch c.StoreBackend {
	case BackendREST:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: store.database_url", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("invalid store.backend: %s (want rest or postgres)", c.StoreBackend)
	}
	return nil
}

func loadSettingsFile(k *koanf.Koanf, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxSettingsFileSize {
		return fmt.Errorf("config file too large: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}

// envKey maps TASKFLOW_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
