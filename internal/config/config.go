// Package config manages the on-disk configuration file consumed
// read-only by the core (spec.md §6 "Configuration surface") and
// read-write by the `actl config` CLI subcommand.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Unknwon/goconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Known config keys (spec.md §6), addressed as "Section.Key".
const (
	KeyAddressBooksLocation      = "Connection.AddressBooksLocation"
	KeyUseHistoryForPassThrough  = "PassThrough.UseHistoryForPassThrough"
	KeyNumberOfReconnectAttempts = "PassThrough.NumberOfReconnectionAttempts"
)

// Path returns the on-disk config file location.
func Path() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory")
	}
	return filepath.Join(home, ".local", "share", "AvConsoleToolkit", "config.ini"), nil
}

// Config wraps the parsed config file, keyed by "Section.Key".
type Config struct {
	path string
	file *goconfig.ConfigFile
}

// Load reads the config file, creating an empty in-memory one if it
// doesn't exist yet.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	var file *goconfig.ConfigFile
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		file = goconfig.NewConfigFile()
	} else {
		f, err := goconfig.LoadConfigFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load config %q", path)
		}
		file = f
	}
	return &Config{path: path, file: file}, nil
}

func splitKey(key string) (section, name string, err error) {
	idx := strings.IndexByte(key, '.')
	if idx < 0 {
		return "", "", errors.Errorf("config key %q must be Section.Key", key)
	}
	return key[:idx], key[idx+1:], nil
}

// Get reads a "Section.Key" value, or "" if unset.
func (c *Config) Get(key string) (string, error) {
	section, name, err := splitKey(key)
	if err != nil {
		return "", err
	}
	value, err := c.file.GetValue(section, name)
	if err != nil {
		return "", nil
	}
	return value, nil
}

// GetBool reads a boolean value, defaulting to false if unset or unparseable.
func (c *Config) GetBool(key string) bool {
	raw, err := c.Get(key)
	if err != nil || raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}

// GetInt reads an integer value, returning def if unset or unparseable.
func (c *Config) GetInt(key string, def int) int {
	raw, err := c.Get(key)
	if err != nil || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Set writes a "Section.Key" value in memory; call Save to persist.
func (c *Config) Set(key, value string) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	c.file.SetValue(section, name, value)
	return nil
}

// Save writes the config file to disk, creating parent directories as needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	if err := goconfig.SaveConfigFile(c.file, c.path); err != nil {
		return errors.Wrapf(err, "save config %q", c.path)
	}
	return nil
}
