package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl"
)

// Config holds the engine tunables. Zero values are filled in by Default;
// files loaded with Load override the defaults they name.
type Config struct {
	// PoolPages is the buffer pool capacity in pages.
	PoolPages int

	// PageSize is the page size in bytes.
	PageSize int

	// DataDir is where heap files are created.
	DataDir string

	// DeadlockInterval is how often the deadlock sweep wakes up.
	DeadlockInterval time.Duration

	// DeadlockThreshold is how long the wait-for graph must quiesce before
	// a sweep runs. Must lie in [100ms, 500ms].
	DeadlockThreshold time.Duration

	// LogLevel is a logrus level name: debug, info, warn, error...
	LogLevel string

	// LogFile is the log output path; empty logs to stderr.
	LogFile string
}

// Default returns the engine's default configuration.
func Default() Config {
	return Config{
		PoolPages:         50,
		PageSize:          4096,
		DataDir:           "data",
		DeadlockInterval:  10 * time.Millisecond,
		DeadlockThreshold: 200 * time.Millisecond,
		LogLevel:          "info",
	}
}

// Load reads an HCL config file and applies it over the defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes HCL bytes and applies them over the defaults. Unknown
// variables are an error rather than being silently ignored.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	var raw map[string]interface{}
	if err := hcl.Decode(&raw, string(b)); err != nil {
		return Config{}, err
	}

	for name, val := range raw {
		switch name {
		case "pool_pages":
			n, err := intValue(val)
			if err != nil {
				return Config{}, fmt.Errorf("pool_pages: %w", err)
			}
			cfg.PoolPages = n
		case "page_size":
			n, err := intValue(val)
			if err != nil {
				return Config{}, fmt.Errorf("page_size: %w", err)
			}
			cfg.PageSize = n
		case "data_dir":
			s, ok := val.(string)
			if !ok {
				return Config{}, fmt.Errorf("data_dir: expected string, got %T", val)
			}
			cfg.DataDir = s
		case "deadlock_interval_ms":
			n, err := intValue(val)
			if err != nil {
				return Config{}, fmt.Errorf("deadlock_interval_ms: %w", err)
			}
			cfg.DeadlockInterval = time.Duration(n) * time.Millisecond
		case "deadlock_threshold_ms":
			n, err := intValue(val)
			if err != nil {
				return Config{}, fmt.Errorf("deadlock_threshold_ms: %w", err)
			}
			cfg.DeadlockThreshold = time.Duration(n) * time.Millisecond
		case "log_level":
			s, ok := val.(string)
			if !ok {
				return Config{}, fmt.Errorf("log_level: expected string, got %T", val)
			}
			cfg.LogLevel = s
		case "log_file":
			s, ok := val.(string)
			if !ok {
				return Config{}, fmt.Errorf("log_file: expected string, got %T", val)
			}
			cfg.LogFile = s
		default:
			return Config{}, fmt.Errorf("%s is not a config variable", name)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.PoolPages <= 0 {
		return fmt.Errorf("pool_pages must be positive, got %d", c.PoolPages)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.DeadlockThreshold < 100*time.Millisecond || c.DeadlockThreshold > 500*time.Millisecond {
		return fmt.Errorf("deadlock_threshold_ms must lie in [100, 500], got %v", c.DeadlockThreshold)
	}
	return nil
}

func intValue(val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", val)
	}
}
