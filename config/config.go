package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"
	coretypes "github.com/projecteru2/core/types"
)

// Config holds global batchkit configuration.
type Config struct {
	// RootDir is the base directory for the run index.
	RootDir string `json:"root_dir" mapstructure:"root_dir"`
	// MetricsFile, when set, receives a Prometheus text snapshot after each run.
	MetricsFile string `json:"metrics_file" mapstructure:"metrics_file"`

	Fetch  FetchConfig  `json:"fetch" mapstructure:"fetch"`
	Refine RefineConfig `json:"refine" mapstructure:"refine"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// FetchConfig controls the fetch-and-archive pipeline.
type FetchConfig struct {
	// Timeout bounds each HTTP GET.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// ItemDelay is a pause after each item so progress renders smoothly.
	ItemDelay time.Duration `json:"item_delay" mapstructure:"item_delay"`
	// MaxItemSize caps a single response body, e.g. "64MiB".
	MaxItemSize string `json:"max_item_size" mapstructure:"max_item_size"`
	// Concurrency is the number of in-flight requests. 1 means strictly sequential.
	Concurrency int    `json:"concurrency" mapstructure:"concurrency"`
	UserAgent   string `json:"user_agent" mapstructure:"user_agent"`
}

// RefineConfig controls the LLM batch refiner.
type RefineConfig struct {
	APIKey      string `json:"api_key" mapstructure:"api_key"`
	Model       string `json:"model" mapstructure:"model"`
	IDField     string `json:"id_field" mapstructure:"id_field"`
	TextField   string `json:"text_field" mapstructure:"text_field"`
	Concurrency int    `json:"concurrency" mapstructure:"concurrency"`
	// PromptFile overrides the built-in prompt template (text/template,
	// the segment text is {{.Text}}).
	PromptFile string `json:"prompt_file" mapstructure:"prompt_file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RootDir: defaultRootDir(),
		Fetch: FetchConfig{
			Timeout:     10 * time.Second, //nolint:mnd
			ItemDelay:   50 * time.Millisecond,
			MaxItemSize: "64MiB",
			Concurrency: 1,
			UserAgent:   "batchkit",
		},
		Refine: RefineConfig{
			Model:       "gemini-2.5-flash",
			IDField:     "id",
			TextField:   "text",
			Concurrency: 1,
		},
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Validate fills zero values and rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		c.RootDir = defaultRootDir()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.ItemDelay < 0 {
		return fmt.Errorf("fetch.item_delay must not be negative, got %s", c.Fetch.ItemDelay)
	}
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = 1
	}
	if c.Refine.Concurrency <= 0 {
		c.Refine.Concurrency = 1
	}
	if _, err := c.Fetch.MaxItemBytes(); err != nil {
		return err
	}
	return nil
}

// MaxItemBytes parses MaxItemSize. Empty means unlimited (0).
func (f FetchConfig) MaxItemBytes() (int64, error) {
	if f.MaxItemSize == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(f.MaxItemSize)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch.max_item_size %q: %w", f.MaxItemSize, err)
	}
	return n, nil
}

// EnsureDirs creates the directories the run index lives in.
func (c *Config) EnsureDirs() error {
	return os.MkdirAll(c.DBDir(), 0o750)
}

// Derived path helpers. The run index lives under {RootDir}/db/.

func (c *Config) DBDir() string    { return filepath.Join(c.RootDir, "db") }
func (c *Config) RunsFile() string { return filepath.Join(c.DBDir(), "runs.json") }
func (c *Config) RunsLock() string { return filepath.Join(c.DBDir(), "runs.lock") }

func defaultRootDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".batchkit")
	}
	return ".batchkit"
}
