package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/jcalabro/bloomer"
	"github.com/jcalabro/bloomer/compress"
	"github.com/jcalabro/bloomer/query"
)

// Config controls a Service. Every field can be set from the environment.
type Config struct {
	// ParallelWorkers caps goroutines per parallel batch; 0 means GOMAXPROCS.
	ParallelWorkers int `env:"BLOOMER_PARALLEL_WORKERS" envDefault:"0"`
	// ParallelMinChunk is the smallest partition a parallel batch hands out.
	ParallelMinChunk int `env:"BLOOMER_PARALLEL_MIN_CHUNK" envDefault:"1024"`

	// Engine is the bit-array engine for newly created filters.
	Engine bloomer.Engine `env:"BLOOMER_ENGINE" envDefault:"blocked"`

	// Compression and CompressionLevel apply to SerializeCompressed.
	Compression      compress.Codec `env:"BLOOMER_COMPRESSION"       envDefault:"zstd"`
	CompressionLevel int            `env:"BLOOMER_COMPRESSION_LEVEL" envDefault:"3"`

	LogLevel  string `env:"BLOOMER_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"BLOOMER_LOG_FORMAT" envDefault:"text"`
}

// DefaultConfig returns the configuration used when no environment
// variables are set.
func DefaultConfig() Config {
	return Config{
		ParallelMinChunk: query.DefaultMinChunk,
		Engine:           bloomer.EngineBlocked,
		Compression:      compress.Zstd,
		CompressionLevel: 3,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// LoadConfig reads a Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges that the environment parser cannot.
func (c Config) Validate() error {
	if c.ParallelWorkers < 0 {
		return fmt.Errorf("%w: BLOOMER_PARALLEL_WORKERS must not be negative", ErrInvalidConfig)
	}
	if c.ParallelMinChunk < 0 {
		return fmt.Errorf("%w: BLOOMER_PARALLEL_MIN_CHUNK must not be negative", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

func (c Config) queryOptions() query.Options {
	return query.Options{Workers: c.ParallelWorkers, MinChunk: c.ParallelMinChunk}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
}
