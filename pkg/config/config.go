package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "taskmerge"
	configFile = "config.json"
	envPrefix  = "TASKMERGE"

	DefaultCalendar = "Tasks"
	DefaultTopLimit = 5
	DefaultLogLevel = "info"
)

type Config struct {
	// Calendar is the Google Calendar name used by `sync`.
	Calendar string `json:"calendar" mapstructure:"calendar"`
	// Store is the task file; empty means ~/.config/taskmerge/tasks.json.
	Store    string `json:"store,omitempty" mapstructure:"store"`
	TopLimit int    `json:"topLimit,omitempty" mapstructure:"topLimit"`
	LogLevel string `json:"logLevel,omitempty" mapstructure:"logLevel"`
}

func Default() *Config {
	return &Config{
		Calendar: DefaultCalendar,
		TopLimit: DefaultTopLimit,
		LogLevel: DefaultLogLevel,
	}
}

// Dir is ~/.config/taskmerge, home of the config, the store and the OAuth files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config at path (the default path when empty). A missing
// file yields the defaults. TASKMERGE_<KEY> environment variables override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	def := Default()
	v.SetDefault("calendar", def.Calendar)
	v.SetDefault("store", def.Store)
	v.SetDefault("topLimit", def.TopLimit)
	v.SetDefault("logLevel", def.LogLevel)
	for _, key := range []string{"calendar", "store", "topLimit", "logLevel"} {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = DefaultTopLimit
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return cfg, nil
}

// Save writes cfg as indented JSON (the default path when path is empty).
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
