// Package config loads this service's TOML configuration, grounded on
// the teacher's environment-variable-driven internal/logger.Init and
// cmd/server/main.go wiring generalized to a single structured file
// (this system has enough knobs — DB DSN, default format,
// Lua script directory — that flat env vars stop being legible).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level shape of config.toml.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Format   FormatConfig   `toml:"format"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	WSPath     string `toml:"ws_path"`
}

// DatabaseConfig holds the Postgres DSN for the durable EventLog. An
// empty DSN means the process runs with eventlog.MemoryStore instead
// (fine for local play, not for anything that must survive a restart).
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

type FormatConfig struct {
	Default      string `toml:"default"`       // e.g. "commander", "standard"
	StartingLife int    `toml:"starting_life"`
	HandSizeCap  int    `toml:"hand_size_cap"`
}

type CatalogConfig struct {
	BaseURL string `toml:"base_url"`
}

// ScriptsConfig points at the directory luaexec.LoadDir scans for
// per-card .lua descriptors.
type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is found, so the
// server and CLI tools run out of the box against an in-memory store.
func Default() Config {
	return Config{
		Server:   ServerConfig{ListenAddr: ":8080", WSPath: "/ws"},
		Database: DatabaseConfig{},
		Format:   FormatConfig{Default: "commander", StartingLife: 40, HandSizeCap: 7},
		Catalog:  CatalogConfig{BaseURL: "http://localhost:8090"},
		Scripts:  ScriptsConfig{Dir: "scripts"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads and decodes a TOML file at path, starting from Default()
// so a partial file only overrides the sections it specifies.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s has unrecognized keys: %v", path, undecoded)
	}
	return cfg, nil
}
