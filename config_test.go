package fundec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sobulik/fundec/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 0, cfg.CoordinatorRank)
	require.Equal(t, 40, cfg.MaxRemoteChunk)
	require.Equal(t, 10, cfg.MaxLocalChunk)
	require.Equal(t, 50*time.Microsecond, cfg.PollInterval)
	require.Equal(t, 30*time.Second, cfg.StallTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			CoordinatorRank: 2,
			MaxRemoteChunk:  100,
			MaxLocalChunk:   5,
			PollInterval:    time.Millisecond,
			StallTimeout:    -1,
			ShutdownTimeout: time.Second,
		}
		want := cfg
		SetDefaults(&cfg)

		require.Equal(t, want, cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative coordinator", func(c *Config) { c.CoordinatorRank = -1 }},
		{"zero remote chunk", func(c *Config) { c.MaxRemoteChunk = 0 }},
		{"zero local chunk", func(c *Config) { c.MaxLocalChunk = 0 }},
		{"negative poll interval", func(c *Config) { c.PollInterval = -time.Second }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"stall shorter than polling", func(c *Config) {
			c.PollInterval = time.Millisecond
			c.StallTimeout = 10 * time.Millisecond
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("disabled stall detection is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StallTimeout = -1
		require.NoError(t, cfg.Validate())
	})

	t.Run("test config is valid", func(t *testing.T) {
		cfg := TestConfig()
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLocalChunk = 50
	cfg.StallTimeout = -1

	require.NotPanics(t, func() {
		cfg.ValidateWithWarnings(logger.NewTest(t))
	})
}

func TestConfig_YAML(t *testing.T) {
	yamlData := `
coordinatorRank: 1
maxRemoteChunk: 64
maxLocalChunk: 8
pollInterval: 1ms
stallTimeout: 2m
shutdownTimeout: 5s
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(yamlData), &cfg))

	require.Equal(t, 1, cfg.CoordinatorRank)
	require.Equal(t, 64, cfg.MaxRemoteChunk)
	require.Equal(t, 8, cfg.MaxLocalChunk)
	require.Equal(t, time.Millisecond, cfg.PollInterval)
	require.Equal(t, 2*time.Minute, cfg.StallTimeout)
	require.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestParseConfig(t *testing.T) {
	t.Run("partial yaml gets defaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("maxRemoteChunk: 16\n"))
		require.NoError(t, err)

		require.Equal(t, 16, cfg.MaxRemoteChunk)
		require.Equal(t, 10, cfg.MaxLocalChunk)
		require.Equal(t, 30*time.Second, cfg.StallTimeout)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := ParseConfig([]byte("maxLocalChunk: -3\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("maxRemoteChunk: [\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxLocalChunk: 3\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxLocalChunk)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
