// Package config loads typed configuration structs from a .env file and the
// process environment, then validates them.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// envFile is read before the environment when present, so local runs can keep
// broker parameters out of the shell. Override with CONFIG_PATH.
const envFile = ".env"

// Load populates cfg from the env file (if any) and environment variables,
// then runs struct validation. Field tags follow cleanenv (`env`,
// `env-default`, `env-separator`) and go-playground/validator (`validate`).
func Load[T any](cfg *T) error {
	path := envFile
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
