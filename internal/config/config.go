// Package config loads and persists console configuration: a JSON file in the
// user config directory, overridden by APPMAN_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/marcus/appman/internal/models"
)

const (
	configDirName  = "appman"
	configFileName = "config.json"
	lockFileName   = "config.json.lock"
	keymapFileName = "keymap.json"
	logFileName    = "appman.log"
)

// Defaults
const (
	DefaultRestPrefix = "/rest"
	DefaultPlugin     = "AppManagerPlugin"
	DefaultTimeout    = 30 * time.Second
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultTheme      = "dracula"
)

// Settings is the effective configuration after file, environment and defaults are merged
type Settings struct {
	ScriptURL    string
	ScriptSuffix string
	RestPrefix   string
	Plugin       string
	Timeout      time.Duration
	LogLevel     string // "debug", "info" (default), "warn", "error"
	LogFormat    string // "text" (default) or "json"
	Theme        string
}

// Dir returns the configuration directory, honoring APPMAN_CONFIG_DIR
func Dir() (string, error) {
	if v := os.Getenv("APPMAN_CONFIG_DIR"); v != "" {
		return v, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, configDirName), nil
}

// DefaultPath returns the path of the config file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// KeymapPath returns the key binding overrides file that lives next to the config file
func KeymapPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), keymapFileName)
}

// LogPath returns the console log file that lives next to the config file
func LogPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), logFileName)
}

// Load reads the config from disk
func Load(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(path string, cfg *models.Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

// withConfigLock serializes read-modify-write cycles on the config file
func withConfigLock(path string, fn func() error) error {
	lockPath := filepath.Join(filepath.Dir(path), lockFileName)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer unlockFile(f)

	return fn()
}

// keys maps config keys to accessors on models.Config
var keys = map[string]struct {
	get func(*models.Config) string
	set func(*models.Config, string)
}{
	"script_url":    {func(c *models.Config) string { return c.ScriptURL }, func(c *models.Config, v string) { c.ScriptURL = v }},
	"script_suffix": {func(c *models.Config) string { return c.ScriptSuffix }, func(c *models.Config, v string) { c.ScriptSuffix = v }},
	"rest_prefix":   {func(c *models.Config) string { return c.RestPrefix }, func(c *models.Config, v string) { c.RestPrefix = v }},
	"plugin":        {func(c *models.Config) string { return c.Plugin }, func(c *models.Config, v string) { c.Plugin = v }},
	"timeout":       {func(c *models.Config) string { return c.Timeout }, func(c *models.Config, v string) { c.Timeout = v }},
	"log_level":     {func(c *models.Config) string { return c.LogLevel }, func(c *models.Config, v string) { c.LogLevel = v }},
	"log_format":    {func(c *models.Config) string { return c.LogFormat }, func(c *models.Config, v string) { c.LogFormat = v }},
	"theme":         {func(c *models.Config) string { return c.Theme }, func(c *models.Config, v string) { c.Theme = v }},
}

// Keys returns all settable keys sorted alphabetically
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the raw file value of key
func Get(path, key string) (string, error) {
	acc, ok := keys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	return acc.get(cfg), nil
}

// Set validates and persists a single key
func Set(path, key, value string) error {
	acc, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := validateValue(key, value); err != nil {
		return err
	}
	return withConfigLock(path, func() error {
		cfg, err := Load(path)
		if err != nil {
			return err
		}
		acc.set(cfg, value)
		return Save(path, cfg)
	})
}

func validateValue(key, value string) error {
	switch key {
	case "timeout":
		if value == "" {
			return nil
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration, got %q", value)
		}
	case "log_level":
		switch strings.ToLower(value) {
		case "", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
		}
	case "log_format":
		switch strings.ToLower(value) {
		case "", "text", "json":
		default:
			return fmt.Errorf("log_format must be text or json, got %q", value)
		}
	}
	return nil
}

// Resolve merges the config file at path with environment overrides and defaults
func Resolve(path string) (Settings, error) {
	cfg, err := Load(path)
	if err != nil {
		return Settings{}, err
	}
	return resolve(cfg), nil
}

func resolve(cfg *models.Config) Settings {
	s := Settings{
		ScriptURL:    cfg.ScriptURL,
		ScriptSuffix: cfg.ScriptSuffix,
		RestPrefix:   cfg.RestPrefix,
		Plugin:       cfg.Plugin,
		Timeout:      DefaultTimeout,
		LogLevel:     cfg.LogLevel,
		LogFormat:    cfg.LogFormat,
		Theme:        cfg.Theme,
	}
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		s.Timeout = d
	}

	if v := os.Getenv("APPMAN_SCRIPT_URL"); v != "" {
		s.ScriptURL = v
	}
	if v, ok := os.LookupEnv("APPMAN_SCRIPT_SUFFIX"); ok {
		s.ScriptSuffix = v
	}
	if v := os.Getenv("APPMAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.Timeout = d
		}
	}
	if v := os.Getenv("APPMAN_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("APPMAN_LOG_FORMAT"); v != "" {
		s.LogFormat = v
	}

	if s.RestPrefix == "" {
		s.RestPrefix = DefaultRestPrefix
	}
	if s.Plugin == "" {
		s.Plugin = DefaultPlugin
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = DefaultLogFormat
	}
	if s.Theme == "" {
		s.Theme = DefaultTheme
	}
	return s
}

// Endpoint builds the REST URL for op: SCRIPTURL + prefix + "/" + suffix + "/" + plugin + "/" + op.
// Empty segments are dropped so an empty suffix never yields "//".
func (s Settings) Endpoint(op string) string {
	parts := []string{strings.TrimRight(s.ScriptURL, "/")}
	for _, seg := range []string{s.RestPrefix, s.ScriptSuffix, s.Plugin, op} {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}
