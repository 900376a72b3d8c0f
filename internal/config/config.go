package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the application configuration, loaded from config.toml
// with environment overrides for the secrets.
type Config struct {
	Addr          string         `koanf:"addr"`
	Backend       string         `koanf:"backend"` // "supabase" or "memory"
	SessionSecret string         `koanf:"session_secret"`
	Supabase      SupabaseConfig `koanf:"supabase"`
}

// SupabaseConfig holds the managed-backend connection settings.
type SupabaseConfig struct {
	URL            string `koanf:"url"`
	AnonKey        string `koanf:"anon_key"`
	ServiceRoleKey string `koanf:"service_role_key"`
	CoverBucket    string `koanf:"cover_bucket"`
}

// Load reads config files in priority order (last wins), then applies
// environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Addr:    ":8080",
		Backend: "supabase",
		Supabase: SupabaseConfig{
			CoverBucket: "book-covers",
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

func configPaths() []string {
	paths := []string{
		filepath.Join(xdg.ConfigHome, "book-nest", "config.toml"),
	}
	// ./config.toml has the highest priority.
	return append(paths, "config.toml")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Supabase.AnonKey = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		cfg.Supabase.ServiceRoleKey = v
	}
}
