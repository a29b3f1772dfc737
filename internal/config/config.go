// Package config resolves run configuration from defaults, a YAML file,
// FANOUT_* environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"fanout/internal/apperrors"

	"gopkg.in/yaml.v3"
)

// RunConfig holds everything needed to execute one fanout run.
type RunConfig struct {
	InputFile  string
	OutputDir  string
	NoRecord   bool
	Threads    int
	Clobber    bool
	Prefix     string
	HashSuffix bool
	Timeout    time.Duration // Per-job timeout, 0 disables
	Command    []string      // Executable followed by its argument template

	Image       string // Docker image; empty runs jobs as local processes
	MetricsAddr string // Status/metrics listen address; empty disables
	StatusToken string // Bearer token for the /v1 status routes; empty disables auth

	CallbackURL string
	CallbackKey string

	JournalDir string
	Resume     bool

	LogLevel  string
	LogFormat string
}

// FileConfig is the on-disk YAML layout. Pointer fields distinguish
// "unset" from an explicit zero value.
type FileConfig struct {
	InputFile   string   `yaml:"input_file"`
	Output      string   `yaml:"output"`
	NoRecord    *bool    `yaml:"no_record"`
	Threads     int      `yaml:"threads"`
	Clobber     *bool    `yaml:"clobber"`
	Prefix      string   `yaml:"prefix"`
	HashSuffix  *bool    `yaml:"hash_suffix"`
	Timeout     string   `yaml:"timeout"`
	Command     []string `yaml:"command"`
	Image       string   `yaml:"image"`
	MetricsAddr string   `yaml:"metrics_addr"`
	Callback    struct {
		URL     string `yaml:"url"`
		KeyFile string `yaml:"key_file"`
	} `yaml:"callback"`
	Journal struct {
		Dir    string `yaml:"dir"`
		Resume *bool  `yaml:"resume"`
	} `yaml:"journal"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the built-in configuration. Threads is left at zero and
// resolved against the host by WithDefaults.
func Default() RunConfig {
	return RunConfig{
		OutputDir: ".",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fc, nil
}

// ApplyFile overlays the values present in a config file.
func (c *RunConfig) ApplyFile(fc *FileConfig) error {
	if fc == nil {
		return nil
	}
	setString(&c.InputFile, fc.InputFile)
	setString(&c.OutputDir, fc.Output)
	setBool(&c.NoRecord, fc.NoRecord)
	if fc.Threads != 0 {
		c.Threads = fc.Threads
	}
	setBool(&c.Clobber, fc.Clobber)
	setString(&c.Prefix, fc.Prefix)
	setBool(&c.HashSuffix, fc.HashSuffix)
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return apperrors.Validation("timeout", fmt.Sprintf("invalid timeout %q: %v", fc.Timeout, err))
		}
		c.Timeout = d
	}
	if len(fc.Command) > 0 {
		c.Command = append([]string(nil), fc.Command...)
	}
	setString(&c.Image, fc.Image)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.CallbackURL, fc.Callback.URL)
	if key := GetSecretFile(fc.Callback.KeyFile); key != "" {
		c.CallbackKey = key
	}
	setString(&c.JournalDir, fc.Journal.Dir)
	setBool(&c.Resume, fc.Journal.Resume)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	return nil
}

// ApplyEnv overlays FANOUT_* environment variables.
func (c *RunConfig) ApplyEnv() {
	c.InputFile = GetEnv("FANOUT_INPUT_FILE", c.InputFile)
	c.OutputDir = GetEnv("FANOUT_OUTPUT", c.OutputDir)
	c.NoRecord = GetBoolEnv("FANOUT_NO_RECORD", c.NoRecord)
	c.Threads = GetIntEnv("FANOUT_THREADS", c.Threads)
	c.Clobber = GetBoolEnv("FANOUT_CLOBBER", c.Clobber)
	c.Prefix = GetEnv("FANOUT_PREFIX", c.Prefix)
	c.HashSuffix = GetBoolEnv("FANOUT_HASH_SUFFIX", c.HashSuffix)
	c.Timeout = GetDurationEnv("FANOUT_TIMEOUT", c.Timeout)
	c.Image = GetEnv("FANOUT_IMAGE", c.Image)
	c.MetricsAddr = GetEnv("FANOUT_METRICS_ADDR", c.MetricsAddr)
	c.StatusToken = GetEnv("FANOUT_STATUS_TOKEN", c.StatusToken)
	c.CallbackURL = GetEnv("FANOUT_CALLBACK_URL", c.CallbackURL)
	if key := GetSecretFile(GetEnv("FANOUT_CALLBACK_KEY_FILE", "")); key != "" {
		c.CallbackKey = key
	}
	c.JournalDir = GetEnv("FANOUT_JOURNAL", c.JournalDir)
	c.Resume = GetBoolEnv("FANOUT_RESUME", c.Resume)
	c.LogLevel = GetEnv("FANOUT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = GetEnv("FANOUT_LOG_FORMAT", c.LogFormat)
}

// WithDefaults fills in zero values. An unset thread count resolves to the
// number of available processing units.
func (c RunConfig) WithDefaults() RunConfig {
	if c.Threads == 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	return c
}

// Validate checks the configuration. Does not modify it.
func (c RunConfig) Validate() error {
	if c.InputFile == "" {
		return apperrors.Validation("input-file", "input file is required")
	}
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return apperrors.Validation("command", "command is required")
	}
	if c.Threads < 1 {
		return apperrors.Validation("threads", fmt.Sprintf("threads must be a positive integer, got %d", c.Threads))
	}
	if c.Timeout < 0 {
		return apperrors.Validation("timeout", "timeout must not be negative")
	}
	if strings.ContainsRune(c.Prefix, os.PathSeparator) {
		return apperrors.Validation("prefix", "prefix must not contain a path separator")
	}
	if c.CallbackURL != "" {
		if err := validateURL(c.CallbackURL); err != nil {
			return apperrors.Validation("callback-url", fmt.Sprintf("invalid callback URL: %v", err))
		}
	}
	if c.Resume && c.JournalDir == "" {
		return apperrors.Validation("resume", "resume requires a journal directory")
	}
	if _, err := c.Level(); err != nil {
		return apperrors.Validation("log-level", err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return apperrors.Validation("log-format", fmt.Sprintf("log format must be text or json, got %q", c.LogFormat))
	}
	return nil
}

// Level parses LogLevel.
func (c RunConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Record reports whether job output is persisted to files.
func (c RunConfig) Record() bool {
	return !c.NoRecord
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
