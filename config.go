package fundec

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls the coordinator's dispatch loop and the worker agent.
//
// All duration fields accept standard Go duration strings like "50us", "30s", "1m".
// Every rank of a run must use the same MaxRemoteChunk and CoordinatorRank.
type Config struct {
	// CoordinatorRank is the rank that runs the dispatch loop. Every other rank is a worker.
	//
	// Default: 0
	CoordinatorRank int `yaml:"coordinatorRank"`

	// MaxRemoteChunk is the largest number of items sent to a worker in one message.
	// It is also the capacity of each worker's receive buffer.
	//
	// Default: 40
	MaxRemoteChunk int `yaml:"maxRemoteChunk"`

	// MaxLocalChunk is the largest number of items the coordinator scans itself when
	// no worker is idle.
	//
	// Default: 10
	// Recommendation: keep below MaxRemoteChunk so the coordinator returns to polling quickly
	MaxLocalChunk int `yaml:"maxLocalChunk"`

	// PollInterval is the pause taken by a dispatch loop iteration that made no progress.
	//
	// Default: 50µs
	PollInterval time.Duration `yaml:"pollInterval"`

	// StallTimeout aborts a run with ErrWorkerStalled when assignments are outstanding
	// and none has completed for this long. Negative disables stall detection.
	//
	// Default: 30 seconds
	StallTimeout time.Duration `yaml:"stallTimeout"`

	// ShutdownTimeout bounds the shutdown broadcast after the dispatch loop ends.
	//
	// Default: 10 seconds
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns a configuration with the reference chunk sizes.
//
// Returns:
//   - Config: Configuration with default values
//
// Example:
//
//	cfg := fundec.DefaultConfig()
//	cfg.MaxRemoteChunk = 100
//	coord, err := fundec.NewCoordinator(&cfg, tr, kernel.NewSearch())
func DefaultConfig() Config {
	return Config{
		CoordinatorRank: 0,
		MaxRemoteChunk:  40,
		MaxLocalChunk:   10,
		PollInterval:    50 * time.Microsecond,
		StallTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// SetDefaults fills zero-valued fields with defaults. Non-zero values are preserved.
//
// Parameters:
//   - cfg: Configuration to fill in place
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MaxRemoteChunk == 0 {
		cfg.MaxRemoteChunk = defaults.MaxRemoteChunk
	}
	if cfg.MaxLocalChunk == 0 {
		cfg.MaxLocalChunk = defaults.MaxLocalChunk
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.StallTimeout == 0 {
		cfg.StallTimeout = defaults.StallTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks the configuration for values the dispatch loop cannot run with.
//
// The world size is not known here; NewCoordinator and NewWorker check
// CoordinatorRank against the transport.
//
// Returns:
//   - error: Wraps ErrInvalidConfig describing the first problem found
func (cfg *Config) Validate() error {
	if cfg.CoordinatorRank < 0 {
		return fmt.Errorf("%w: CoordinatorRank must be >= 0, got %d", ErrInvalidConfig, cfg.CoordinatorRank)
	}

	if cfg.MaxRemoteChunk < 1 {
		return fmt.Errorf("%w: MaxRemoteChunk must be >= 1, got %d", ErrInvalidConfig, cfg.MaxRemoteChunk)
	}

	if cfg.MaxLocalChunk < 1 {
		return fmt.Errorf("%w: MaxLocalChunk must be >= 1, got %d", ErrInvalidConfig, cfg.MaxLocalChunk)
	}

	if cfg.PollInterval < 0 {
		return fmt.Errorf("%w: PollInterval must be >= 0, got %v", ErrInvalidConfig, cfg.PollInterval)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: ShutdownTimeout must be > 0, got %v", ErrInvalidConfig, cfg.ShutdownTimeout)
	}

	if cfg.StallTimeout > 0 && cfg.StallTimeout < 100*cfg.PollInterval {
		return fmt.Errorf("%w: StallTimeout (%v) must be >= 100*PollInterval (%v)",
			ErrInvalidConfig, cfg.StallTimeout, cfg.PollInterval)
	}

	return nil
}

// ValidateWithWarnings logs settings that work but are probably not what the operator wants.
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.MaxLocalChunk > cfg.MaxRemoteChunk {
		logger.Warn(
			"MaxLocalChunk exceeds MaxRemoteChunk, the coordinator will lag behind idle workers",
			"maxLocalChunk", cfg.MaxLocalChunk,
			"maxRemoteChunk", cfg.MaxRemoteChunk,
		)
	}

	if cfg.StallTimeout < 0 {
		logger.Warn("stall detection disabled, a silent worker will hang the run forever")
	}
}

// TestConfig returns a configuration tuned for fast tests.
//
// Small chunks force many dispatch rounds on small workloads and a short stall timeout
// keeps failing tests from hanging.
func TestConfig() Config {
	return Config{
		CoordinatorRank: 0,
		MaxRemoteChunk:  4,
		MaxLocalChunk:   2,
		PollInterval:    10 * time.Microsecond,
		StallTimeout:    5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

// LoadConfig reads a YAML configuration file, fills in defaults and validates it.
//
// Parameters:
//   - path: YAML file path
//
// Returns:
//   - *Config: Loaded configuration
//   - error: Read, parse or validation error
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML into a Config, fills in defaults and validates it.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
