package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pngkit/pkg/png"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, png.DefaultMaxIDATSize, cfg.MaxIDATSize)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestFromEnv(t *testing.T) {
	cfg, err := fromLookup(Default(), envMap(map[string]string{
		EnvLogLevel:    "DEBUG",
		EnvWorkers:     "3",
		EnvCompression: "best",
		EnvFilter:      "paeth",
		EnvIDATSize:    "1024",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{
		LogLevel:    zerolog.DebugLevel,
		Workers:     3,
		Compression: png.BestCompression,
		Filter:      png.StrategyPaeth,
		MaxIDATSize: 1024,
	}, cfg)
}

func TestFromEnvUnset(t *testing.T) {
	base := Default()
	cfg, err := fromLookup(base, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"level":       {EnvLogLevel: "loud"},
		"workers":     {EnvWorkers: "many"},
		"zero worker": {EnvWorkers: "0"},
		"compression": {EnvCompression: "maximum"},
		"filter":      {EnvFilter: "zigzag"},
		"idat size":   {EnvIDATSize: "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromLookup(Default(), envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestEncoder(t *testing.T) {
	cfg := Default()
	cfg.Filter = png.StrategyUp
	cfg.MaxIDATSize = 512

	logger := zerolog.Nop()
	e := cfg.Encoder(&logger)
	assert.Equal(t, png.StrategyUp, e.Filter)
	assert.Equal(t, 512, e.MaxIDATSize)
	assert.Same(t, &logger, e.Logger)
}
