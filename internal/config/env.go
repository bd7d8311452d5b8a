package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvProfile  = "KLONDIKE_PROFILE"
	EnvCloudURL = "KLONDIKE_CLOUD_URL"
	EnvLogLevel = "KLONDIKE_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays the environment on cfg. Empty variables are ignored.
func ApplyEnv(cfg *FileConfig) {
	if v := env(EnvProfile); v != "" {
		cfg.Game.Profile = &v
	}
	if v, ok := os.LookupEnv(EnvCloudURL); ok {
		v = strings.TrimSpace(v)
		cfg.Cloud.URL = &v
	}
	if v := env(EnvLogLevel); v != "" {
		cfg.Log.Level = &v
	}
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
