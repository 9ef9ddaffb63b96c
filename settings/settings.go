// Package settings holds the application-level YAML configuration shared by
// the CLI and the HTTP service.
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/logging"
	"github.com/RyanBlaney/sonido-plagio/transcode"
)

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "sonido-plagio.yaml"

// Duration is a time.Duration written as a Go duration string ("30s", "2m")
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Settings is the root of the YAML file
type Settings struct {
	LogLevel string `yaml:"log_level"`

	Server  ServerSettings  `yaml:"server"`
	Cache   CacheSettings   `yaml:"cache"`
	Decoder DecoderSettings `yaml:"decoder"`

	Features   config.FeatureConfig    `yaml:"features"`
	Comparison config.ComparisonConfig `yaml:"comparison"`

	path string
}

// ServerSettings configures the HTTP service
type ServerSettings struct {
	Addr           string   `yaml:"addr"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	RequestTimeout Duration `yaml:"request_timeout"`
	AllowedOrigin  string   `yaml:"allowed_origin"`
}

// CacheSettings configures the on-disk fingerprint cache
type CacheSettings struct {
	Enabled bool     `yaml:"enabled"`
	Dir     string   `yaml:"dir"`
	TTL     Duration `yaml:"ttl"`
}

// DecoderSettings mirrors transcode.DecoderConfig
type DecoderSettings struct {
	EnableFFmpeg bool     `yaml:"enable_ffmpeg"`
	FFmpegPath   string   `yaml:"ffmpeg_path"`
	FFprobePath  string   `yaml:"ffprobe_path"`
	Timeout      Duration `yaml:"timeout"`
	MaxDuration  Duration `yaml:"max_duration"`
}

// Default returns the built-in settings
func Default() *Settings {
	dec := transcode.DefaultDecoderConfig()
	return &Settings{
		LogLevel: "info",
		Server: ServerSettings{
			Addr:           ":5000",
			MaxUploadBytes: 64 << 20,
			RequestTimeout: Duration(2 * time.Minute),
			AllowedOrigin:  "*",
		},
		Cache: CacheSettings{
			Enabled: false,
			Dir:     ".sonido-cache",
		},
		Decoder: DecoderSettings{
			EnableFFmpeg: dec.EnableFFmpeg,
			FFmpegPath:   dec.FFmpegPath,
			FFprobePath:  dec.FFprobePath,
			Timeout:      Duration(dec.Timeout),
			MaxDuration:  Duration(dec.MaxDuration),
		},
		Features:   *config.DefaultFeatureConfig(),
		Comparison: *config.DefaultComparisonConfig(),
	}
}

// Load reads settings from path on top of the defaults. An empty path tries
// DefaultConfigFile; a missing file is not an error.
func Load(path string) (*Settings, error) {
	s := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				logging.Warn("Config file not found, using defaults", logging.Fields{"path": path})
			}
			return s, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	s.path = path

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}

// Path is the file the settings came from, empty for defaults
func (s *Settings) Path() string {
	return s.path
}

// Validate checks every section
func (s *Settings) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if s.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive"))
	}
	if s.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}
	if s.Cache.Enabled && s.Cache.Dir == "" {
		errs = append(errs, fmt.Errorf("cache.dir is required when the cache is enabled"))
	}
	if err := s.Features.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("features: %w", err))
	}
	if err := s.Comparison.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("comparison: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, defaulting to info
func (s *Settings) Level() logging.Level {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}

// DecoderConfig builds the transcode configuration
func (s *Settings) DecoderConfig() *transcode.DecoderConfig {
	return &transcode.DecoderConfig{
		FFmpegPath:   s.Decoder.FFmpegPath,
		FFprobePath:  s.Decoder.FFprobePath,
		Timeout:      s.Decoder.Timeout.Std(),
		MaxDuration:  s.Decoder.MaxDuration.Std(),
		EnableFFmpeg: s.Decoder.EnableFFmpeg,
	}
}

// FeatureConfig returns a copy of the feature settings
func (s *Settings) FeatureConfig() *config.FeatureConfig {
	c := s.Features
	return &c
}

// ComparisonConfig returns a copy of the comparison settings
func (s *Settings) ComparisonConfig() *config.ComparisonConfig {
	c := s.Comparison
	return &c
}

// Marshal renders the settings as YAML
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
