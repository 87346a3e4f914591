// Package config reads YAML configuration files and overlays values from
// the process environment.
//
// Environment files are read first, without replacing variables that are
// already set. When ENV_FILE names a file only that file is read; otherwise
// .env.local is read before .env. Missing files are skipped.
//
// Struct fields opt into environment overlays with an `env` tag:
//
//	type Config struct {
//	    OutputDir    string        `yaml:"output_dir"    env:"BLOCKLIST_OUTPUT_DIR"`
//	    FetchTimeout time.Duration `yaml:"fetch_timeout" env:"BLOCKLIST_FETCH_TIMEOUT"`
//	}
//
//	cfg, err := config.Load[Config]("config.yml")
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFiles lists the dotenv files to read, in priority order.
func envFiles() []string {
	if f := os.Getenv("ENV_FILE"); f != "" {
		return []string{f}
	}
	return []string{".env.local", ".env"}
}

func readEnvFiles() error {
	for _, f := range envFiles() {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", f, err)
		}
	}
	return nil
}

// Load decodes the YAML file at path into a new T and overlays tagged
// environment variables. A missing file is an error.
func Load[T any](path string) (*T, error) {
	return LoadWithDefaults[T](path, false, nil)
}

// LoadOptional is Load for deployments configured from the environment
// alone: a missing file yields the zero T plus overlays.
func LoadOptional[T any](path string) (*T, error) {
	return LoadWithDefaults[T](path, true, nil)
}

// LoadWithDefaults decodes path into T, overlays the environment, lets
// setDefaults fill the gaps and overlays again, so precedence is
// env > file > defaults. setDefaults may be nil.
func LoadWithDefaults[T any](path string, optional bool, setDefaults func(*T)) (*T, error) {
	if err := readEnvFiles(); err != nil {
		return nil, err
	}

	cfg := new(T)
	if err := decodeFile(path, optional, cfg); err != nil {
		return nil, err
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if setDefaults == nil {
		return cfg, nil
	}

	// Defaults may derive from overlaid values, and must not clobber them.
	setDefaults(cfg)
	if err := overlayEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, optional bool, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// An empty document decodes to io.EOF; treat it like an empty mapping.
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// GetConfigPath returns CONFIG_PATH when set, else defaultPath.
func GetConfigPath(defaultPath string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultPath
}
