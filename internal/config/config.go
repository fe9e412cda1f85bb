// Package config loads the framestream YAML configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Accepted enum values.
const (
	CodecLengthPrefix = "length-prefix"
	CodecTagged       = "tagged"

	ByteOrderBig    = "big"
	ByteOrderLittle = "little"

	EnvelopeRaw  = "raw"
	EnvelopeJSON = "json"

	DecoderStd  = "std"
	DecoderGoCV = "gocv"

	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Config represents framestream.yaml.
type Config struct {
	// Source address: host:port, tcp://host:port or ws(s)://...
	Address string `yaml:"address"`

	Codec     string `yaml:"codec"`
	ByteOrder string `yaml:"byte_order"`
	Envelope  string `yaml:"envelope"`
	Decoder   string `yaml:"decoder"`

	// Zero disables the read timeout.
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	ChunkSize      int           `yaml:"chunk_size"`
	MaxMessageSize uint64        `yaml:"max_message_size"`

	Window WindowConfig `yaml:"window"`
	Alert  AlertConfig  `yaml:"alert"`
	Log    LogConfig    `yaml:"log"`
}

// WindowConfig configures the display window.
type WindowConfig struct {
	Title   string `yaml:"title"`
	QuitKey string `yaml:"quit_key"`
}

// AlertConfig configures the alert cue.
type AlertConfig struct {
	// Sound file to play. Empty rings the terminal bell instead.
	Sound string `yaml:"sound"`
	// Player command; the sound file is appended.
	Command []string `yaml:"command"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	Backend string `yaml:"backend"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path. A missing file yields Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8485"
	}
	if cfg.Codec == "" {
		cfg.Codec = CodecLengthPrefix
	}
	if cfg.ByteOrder == "" {
		cfg.ByteOrder = ByteOrderBig
	}
	if cfg.Envelope == "" {
		cfg.Envelope = EnvelopeRaw
	}
	if cfg.Decoder == "" {
		cfg.Decoder = DecoderStd
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4096
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 64 << 20
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = "Stream"
	}
	if cfg.Window.QuitKey == "" {
		cfg.Window.QuitKey = "q"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Backend == "" {
		cfg.Log.Backend = BackendSlog
	}
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"codec", c.Codec, []string{CodecLengthPrefix, CodecTagged}},
		{"byte_order", c.ByteOrder, []string{ByteOrderBig, ByteOrderLittle}},
		{"envelope", c.Envelope, []string{EnvelopeRaw, EnvelopeJSON}},
		{"decoder", c.Decoder, []string{DecoderStd, DecoderGoCV}},
		{"log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}},
		{"log.backend", c.Log.Backend, []string{BackendSlog, BackendZap}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return errors.Errorf("invalid %s %q, want one of %v", ch.field, ch.value, ch.allowed)
		}
	}

	if len([]rune(c.Window.QuitKey)) != 1 {
		return errors.Errorf("invalid window.quit_key %q, want a single character", c.Window.QuitKey)
	}
	if c.ReadTimeout < 0 {
		return errors.New("read_timeout must not be negative")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
