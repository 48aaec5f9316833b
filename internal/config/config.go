// Package config loads the YAML configuration that drives the storage
// engine and its admin server, the way tuannm99-novasql's
// internal/config.go loads novasql.yaml.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the top-level engine configuration.
type Config struct {
	Storage struct {
		DataDir  string `mapstructure:"data_dir"`
		PageSize int    `mapstructure:"page_size"`
	} `mapstructure:"storage"`

	Bufferpool struct {
		NumFrames int `mapstructure:"num_frames"`
	} `mapstructure:"bufferpool"`

	Admin struct {
		Addr    string `mapstructure:"addr"`
		Enabled bool   `mapstructure:"enabled"`
	} `mapstructure:"admin"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	var cfg Config
	cfg.Storage.DataDir = "./data"
	cfg.Storage.PageSize = 8192
	cfg.Bufferpool.NumFrames = 64
	cfg.Admin.Addr = "127.0.0.1:6564"
	cfg.Admin.Enabled = false
	return cfg
}

// Load reads a YAML config file at path and unmarshals it into a Config,
// seeded with the Default() values for anything the file omits.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.page_size", cfg.Storage.PageSize)
	v.SetDefault("bufferpool.num_frames", cfg.Bufferpool.NumFrames)
	v.SetDefault("admin.addr", cfg.Admin.Addr)
	v.SetDefault("admin.enabled", cfg.Admin.Enabled)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	return cfg, nil
}
