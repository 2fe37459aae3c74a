package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/iov-one/accrual/app"
	"github.com/iov-one/accrual/errors"
)

const configFile = "config.toml"

// Config is the node configuration kept in the home directory.
type Config struct {
	// Domains lists the domains hosted by this node. All of them are
	// peers of each other.
	Domains []string `toml:"domains"`
	// LogLevel is one of debug, info, error or none.
	LogLevel string `toml:"log_level"`
	// LogFile, when set, is the rotated log file relative to home.
	// Logs go to stderr otherwise.
	LogFile string `toml:"log_file"`
	// LogMaxSize is the size in megabytes a log file is rotated at.
	LogMaxSize int `toml:"log_max_size"`
	// Metrics prints operation metrics after every command.
	Metrics bool `toml:"metrics"`
}

// DefaultConfig returns the configuration written by init.
func DefaultConfig() *Config {
	return &Config{
		Domains:    []string{"alpha", "beta"},
		LogLevel:   "info",
		LogMaxSize: 100,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs error
	if len(c.Domains) == 0 {
		errs = errors.AppendField(errs, "Domains", errors.ErrEmpty)
	}
	seen := make(map[string]bool)
	for _, d := range c.Domains {
		if !app.IsValidDomainID(d) {
			errs = errors.AppendField(errs, "Domains", errors.Wrapf(errors.ErrInvalidInput, "domain %q", d))
		}
		if seen[d] {
			errs = errors.AppendField(errs, "Domains", errors.Wrapf(errors.ErrDuplicate, "domain %q", d))
		}
		seen[d] = true
	}
	switch c.LogLevel {
	case "debug", "info", "error", "none":
	default:
		errs = errors.AppendField(errs, "LogLevel", errors.Wrapf(errors.ErrInvalidInput, "level %q", c.LogLevel))
	}
	if c.LogMaxSize < 0 {
		errs = errors.AppendField(errs, "LogMaxSize", errors.ErrInvalidInput)
	}
	return errs
}

// LoadConfig reads the configuration from given home directory.
func LoadConfig(home string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(filepath.Join(home, configFile), &c); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "read config: %s (did you run init?)", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConfig writes the configuration into given home directory.
func SaveConfig(home string, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "create home: %s", err)
	}
	fd, err := os.OpenFile(filepath.Join(home, configFile), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "open config: %s", err)
	}
	defer fd.Close()
	if err := toml.NewEncoder(fd).Encode(c); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "write config: %s", err)
	}
	return nil
}

func genesisPath(home, domain string) string {
	return filepath.Join(home, "config", domain+".genesis.json")
}

func dataPath(home, domain string) string {
	return filepath.Join(home, "data", domain)
}
