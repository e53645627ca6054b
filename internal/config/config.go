// Package config loads askfin settings from config.yaml, ASKFIN_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "askfin"
	configFile = "config.yaml"
	envPrefix  = "ASKFIN"

	DefaultAPIURL         = "http://localhost:8000"
	DefaultCurrencySymbol = "₹"
	DefaultServerAddr     = ":8000"
)

type Config struct {
	APIURL         string        `mapstructure:"api_url"`
	CurrencySymbol string        `mapstructure:"currency_symbol"`
	ExportDir      string        `mapstructure:"export_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Server         ServerConfig  `mapstructure:"server"`

	// Path is the file the config was read from and is saved back to.
	Path string `mapstructure:"-"`
}

type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	DBPath string `mapstructure:"db_path"`
}

// flagKeys maps config keys to the flag names that may override them.
var flagKeys = map[string]string{
	"api_url":         "api-url",
	"log_level":       "log-level",
	"currency_symbol": "currency",
	"server.addr":     "addr",
	"server.db_path":  "db",
}

// DefaultPath returns ~/.config/askfin/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, configFile), nil
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	logFile := ""
	if dir, err := os.UserConfigDir(); err == nil {
		logFile = filepath.Join(dir, appName, appName+".log")
	}

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("currency_symbol", DefaultCurrencySymbol)
	v.SetDefault("export_dir", home)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", logFile)
	v.SetDefault("request_timeout", time.Duration(0))
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.db_path", "")
}

// Load reads path (DefaultPath when empty). A missing file is not an error.
// Flags in flags that were set on the command line override file and env
// values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http(s) URL", c.APIURL)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request_timeout %s: must not be negative", c.RequestTimeout)
	}
	if strings.TrimSpace(c.CurrencySymbol) == "" {
		return errors.New("currency_symbol cannot be empty")
	}
	return nil
}

// fileConfig is the on-disk shape written by Save.
type fileConfig struct {
	APIURL         string     `yaml:"api_url"`
	CurrencySymbol string     `yaml:"currency_symbol"`
	ExportDir      string     `yaml:"export_dir"`
	LogLevel       string     `yaml:"log_level"`
	LogFile        string     `yaml:"log_file,omitempty"`
	RequestTimeout string     `yaml:"request_timeout"`
	Server         fileServer `yaml:"server"`
}

type fileServer struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path,omitempty"`
}

// Save writes cfg to cfg.Path, creating the directory if needed.
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := cfg.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(fileConfig{
		APIURL:         cfg.APIURL,
		CurrencySymbol: cfg.CurrencySymbol,
		ExportDir:      cfg.ExportDir,
		LogLevel:       cfg.LogLevel,
		LogFile:        cfg.LogFile,
		RequestTimeout: cfg.RequestTimeout.String(),
		Server:         fileServer{Addr: cfg.Server.Addr, DBPath: cfg.Server.DBPath},
	})
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	cfg.Path = path
	return nil
}
