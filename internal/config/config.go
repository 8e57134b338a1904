package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/feedline/internal/timeline"
)

//go:embed schema.cue
var schemaSource string

// Config is the full feedline configuration.
type Config struct {
	Limits LimitsConfig `yaml:"limits" toml:"limits" json:"limits"`
	Store  StoreConfig  `yaml:"store" toml:"store" json:"store"`
	Log    LogConfig    `yaml:"log" toml:"log" json:"log"`
	Server ServerConfig `yaml:"server" toml:"server" json:"server"`
}

// LimitsConfig holds the queue cap and the truncation ceiling/floor pair.
type LimitsConfig struct {
	MaxQueuedItems  int `yaml:"max_queued_items" toml:"max_queued_items" json:"max_queued_items"`
	TruncateCeiling int `yaml:"truncate_ceiling" toml:"truncate_ceiling" json:"truncate_ceiling"`
	TruncateFloor   int `yaml:"truncate_floor" toml:"truncate_floor" json:"truncate_floor"`
}

// StoreConfig locates the SQLite journal.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr    string `yaml:"addr" toml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" toml:"metrics" json:"metrics"`
}

const (
	defaultStorePath  = "feedline.db"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	defaultServerAddr = "127.0.0.1:7411"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	limits := timeline.DefaultLimits()
	return Config{
		Limits: LimitsConfig{
			MaxQueuedItems:  limits.MaxQueuedItems,
			TruncateCeiling: limits.TruncateCeiling,
			TruncateFloor:   limits.TruncateFloor,
		},
		Store:  StoreConfig{Path: defaultStorePath},
		Log:    LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Server: ServerConfig{Addr: defaultServerAddr, Metrics: true},
	}
}

// Load reads the config file at path on top of Default. An empty path or a
// missing file yields the defaults. Files ending in .toml are decoded as
// TOML; anything else is YAML. Unknown keys are rejected.
//
// Load does not validate; call Validate on the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, formatOf(path), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Decode strictly decodes data into cfg. Fields absent from data keep
// their current value.
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
}

// ValidationError describes one field that violates the schema.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate unifies cfg with the embedded CUE schema and returns every
// violation found. A nil slice means the config is valid.
func Validate(cfg Config) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("schema: %v", err)}}
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(cfg))
	err := value.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return errs
}

// TimelineLimits converts the limits section for the reducer.
func (c Config) TimelineLimits() timeline.Limits {
	return timeline.Limits{
		MaxQueuedItems:  c.Limits.MaxQueuedItems,
		TruncateCeiling: c.Limits.TruncateCeiling,
		TruncateFloor:   c.Limits.TruncateFloor,
	}
}

// Logger builds a slog.Logger writing to w. verbose forces debug level.
func (c LogConfig) Logger(w io.Writer, verbose bool) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
}
