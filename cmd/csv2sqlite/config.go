package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds loader settings. Values come from the defaults, then the YAML
// file given with --config, then any flags set explicitly on the command line.
type Config struct {
	Marker      bool   `yaml:"marker"`
	Header      bool   `yaml:"header"`
	Raw         bool   `yaml:"raw"`
	Infer       bool   `yaml:"infer"`
	Synchronous string `yaml:"synchronous"`
	LogLevel    string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Marker:      true,
		Header:      true,
		Infer:       true,
		Synchronous: "OFF",
		LogLevel:    "warn",
	}
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyFlags copies the flags the user actually set over cfg.
func applyFlags(flags *pflag.FlagSet, cfg *Config) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "marker":
			cfg.Marker, err = flags.GetBool(f.Name)
		case "header":
			cfg.Header, err = flags.GetBool(f.Name)
		case "raw":
			cfg.Raw, err = flags.GetBool(f.Name)
		case "infer":
			cfg.Infer, err = flags.GetBool(f.Name)
		case "synchronous":
			cfg.Synchronous, err = flags.GetString(f.Name)
		case "log-level":
			cfg.LogLevel, err = flags.GetString(f.Name)
		case "verbose":
			var verbose bool
			if verbose, err = flags.GetBool(f.Name); verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	return err
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
