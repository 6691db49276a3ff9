package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds settings read from LOCSYNC_* environment variables.
type Env struct {
	Provider  string `env:"LOCSYNC_PROVIDER"`
	Model     string `env:"LOCSYNC_MODEL"`
	APIKey    string `env:"LOCSYNC_API_KEY"`
	BaseURL   string `env:"LOCSYNC_BASE_URL"`
	BatchSize int    `env:"LOCSYNC_BATCH_SIZE"`
	Proxy     string `env:"LOCSYNC_PROXY"`
}

// LoadEnv loads rootDir/.env, if present, without overriding variables
// that are already set, then parses the LOCSYNC_* variables.
func LoadEnv(rootDir string) (Env, error) {
	dotenv := filepath.Join(rootDir, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return Env{}, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
