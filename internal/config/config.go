package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Analysis defaults
	DefaultSheetIndex int    `mapstructure:"default_sheet_index" yaml:"default_sheet_index"`
	FrequencyOrder    string `mapstructure:"frequency_order" yaml:"frequency_order"`
	CollationLocale   string `mapstructure:"collation_locale" yaml:"collation_locale"`
	Separator         string `mapstructure:"separator" yaml:"separator"`
	Transpose         bool   `mapstructure:"transpose" yaml:"transpose"`
	ExportDir         string `mapstructure:"export_dir" yaml:"export_dir"`

	// HTTP API
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"default_sheet_index",
	"frequency_order",
	"collation_locale",
	"separator",
	"transpose",
	"export_dir",
	"listen_addr",
	"max_upload_mb",
	"log_level",
	"log_format",
}

// Dir returns ~/.surveytab.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".surveytab"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveytab/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYTAB")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("default_sheet_index", 1)
	v.SetDefault("frequency_order", "count")
	v.SetDefault("collation_locale", "")
	v.SetDefault("separator", ",")
	v.SetDefault("transpose", false)
	v.SetDefault("export_dir", ".")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// SeparatorRune returns the configured multi-answer separator, ',' if unset.
func (c *Global) SeparatorRune() rune {
	r, _ := ParseSeparator(c.Separator)
	return r
}

// Get returns the value of key formatted for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "default_sheet_index":
		return strconv.Itoa(c.DefaultSheetIndex), nil
	case "frequency_order":
		return c.FrequencyOrder, nil
	case "collation_locale":
		return c.CollationLocale, nil
	case "separator":
		return c.Separator, nil
	case "transpose":
		return strconv.FormatBool(c.Transpose), nil
	case "export_dir":
		return c.ExportDir, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set validates val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "default_sheet_index":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for default_sheet_index: %v (must be >= 1)", val)
		}
		c.DefaultSheetIndex = i
	case "frequency_order":
		switch v := strings.ToLower(strings.TrimSpace(val)); v {
		case "count", "appearance", "alpha":
			c.FrequencyOrder = v
		default:
			return fmt.Errorf("invalid frequency_order: %s (use count|appearance|alpha)", val)
		}
	case "collation_locale":
		val = strings.TrimSpace(val)
		if val != "" {
			if _, err := language.Parse(val); err != nil {
				return fmt.Errorf("invalid collation_locale: %s: %w", val, err)
			}
		}
		c.CollationLocale = val
	case "separator":
		if _, err := ParseSeparator(val); err != nil {
			return err
		}
		c.Separator = val
	case "transpose":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for transpose: %v", val)
		}
		c.Transpose = b
	case "export_dir":
		c.ExportDir = val
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = i
	case "log_level":
		switch v := strings.ToLower(val); v {
		case "debug", "info", "warn", "error":
			c.LogLevel = v
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch v := strings.ToLower(val); v {
		case "console", "json":
			c.LogFormat = v
		default:
			return fmt.Errorf("invalid log_format: %s (use console|json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// ParseSeparator accepts a single character or the names "tab" and "semicolon".
func ParseSeparator(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid separator: %q (use a single character, 'tab' or 'semicolon')", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '(' || r == ')' {
		return 0, fmt.Errorf("invalid separator: %q (parentheses group answers)", s)
	}
	return r, nil
}
