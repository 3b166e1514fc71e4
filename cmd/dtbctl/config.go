package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dtbkit/pkg/printer"
)

const configFileName = ".dtbctl.yaml"

// Config holds defaults read from the YAML config file.
//
//	format: yaml
//	indent: 4
//	max_value_bytes: 0
//	color: false
//	log_level: debug
type Config struct {
	Format        string `yaml:"format"`
	Indent        int    `yaml:"indent"`
	MaxValueBytes *int   `yaml:"max_value_bytes"`
	Color         *bool  `yaml:"color"`
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`

	found bool
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configFileName)
}

// loadConfig reads the config file at path. A missing file is an error only
// when required is set.
func loadConfig(path string, required bool) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.Format != "" {
		if _, err := printer.ParseFormat(c.Format); err != nil {
			return c, fmt.Errorf("config %s: %w", path, err)
		}
	}
	c.found = true
	return c, nil
}

// printerOptions merges config file defaults and global flags.
func printerOptions() printer.Options {
	opts := printer.DefaultOptions()
	if cfg.Format != "" {
		opts.Format = printer.Format(cfg.Format)
	}
	if cfg.Indent > 0 {
		opts.IndentSize = cfg.Indent
	}
	if cfg.MaxValueBytes != nil {
		opts.MaxValueBytes = *cfg.MaxValueBytes
	}
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	opts.Color = useColor()
	return opts
}
