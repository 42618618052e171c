package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"pngkit/internal/oops"
	"pngkit/pkg/png"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel    = "PNGKIT_LOG_LEVEL"
	EnvWorkers     = "PNGKIT_WORKERS"
	EnvCompression = "PNGKIT_COMPRESSION"
	EnvFilter      = "PNGKIT_FILTER"
	EnvIDATSize    = "PNGKIT_IDAT_SIZE"
)

type Config struct {
	LogLevel    zerolog.Level
	Workers     int
	Compression png.CompressionLevel
	Filter      png.FilterStrategy
	MaxIDATSize int
}

func Default() Config {
	return Config{
		LogLevel:    zerolog.InfoLevel,
		Workers:     runtime.NumCPU(),
		Compression: png.DefaultCompression,
		Filter:      png.StrategyAdaptive,
		MaxIDATSize: png.DefaultMaxIDATSize,
	}
}

// FromEnv overlays any PNGKIT_* variables that are set onto base.
func FromEnv(base Config) (Config, error) {
	return fromLookup(base, os.LookupEnv)
}

func fromLookup(base Config, lookup func(string) (string, bool)) (Config, error) {
	cfg := base
	if v, ok := lookup(EnvLogLevel); ok {
		level, err := ParseLogLevel(v)
		if err != nil {
			return base, oops.New(err, "bad %s", EnvLogLevel)
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return base, oops.New(err, "bad %s", EnvWorkers)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvCompression); ok {
		level, err := png.ParseCompressionLevel(v)
		if err != nil {
			return base, oops.New(err, "bad %s", EnvCompression)
		}
		cfg.Compression = level
	}
	if v, ok := lookup(EnvFilter); ok {
		s, err := png.ParseFilterStrategy(v)
		if err != nil {
			return base, oops.New(err, "bad %s", EnvFilter)
		}
		cfg.Filter = s
	}
	if v, ok := lookup(EnvIDATSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return base, oops.New(err, "bad %s", EnvIDATSize)
		}
		cfg.MaxIDATSize = n
	}
	return cfg, cfg.Validate()
}

// ParseLogLevel accepts zerolog level names, case-insensitively.
func ParseLogLevel(s string) (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxIDATSize < 1 {
		return fmt.Errorf("IDAT size must be at least 1 byte, got %d", c.MaxIDATSize)
	}
	return nil
}

// Encoder returns a PNG encoder using the configured settings.
func (c Config) Encoder(logger *zerolog.Logger) *png.Encoder {
	return &png.Encoder{
		CompressionLevel: c.Compression,
		Filter:           c.Filter,
		MaxIDATSize:      c.MaxIDATSize,
		Logger:           logger,
	}
}
