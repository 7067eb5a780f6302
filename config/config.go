// Package config defines the crawler.yaml configuration surface.
//
// All tuning knobs of the crawl engine live here: the rate controller
// thresholds, orchestrator saturation bounds, and executor limits are
// parameters with defaults, never constants duplicated at call sites.
// CLI flags always override config values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents a crawler.yaml configuration file.
// All values are optional and act as defaults for crawl flags.
type Config struct {
	Target  string `yaml:"target"`
	Profile string `yaml:"profile"`

	Rate         RateConfig         `yaml:"rate"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Executor     ExecutorConfig     `yaml:"executor"`
	Storage      StorageConfig      `yaml:"storage"`
	Archive      ArchiveConfig      `yaml:"archive"`
	Adapter      AdapterConfig      `yaml:"adapter"`

	// Keywords feed the keyword search strategy. Empty means the
	// strategy is skipped by profiles that would otherwise include it.
	Keywords []string `yaml:"keywords"`
}

// RateConfig parameterizes the rate controller. The original deployment
// carried two diverging copies of these numbers; here they exist once.
type RateConfig struct {
	// BaseDelay is the initial inter-request spacing.
	BaseDelay Duration `yaml:"base_delay"`
	// MinDelay is the floor get_delay never goes under.
	MinDelay Duration `yaml:"min_delay"`
	// MaxDelay caps exponential backoff.
	MaxDelay Duration `yaml:"max_delay"`
	// RecoveryStreak is the success streak after which the delay decays.
	RecoveryStreak int `yaml:"recovery_streak"`
	// RecoveryFloor is the delay below which no further decay applies.
	RecoveryFloor Duration `yaml:"recovery_floor"`
	// CooldownTrigger is the consecutive rate-limit count entering cooldown.
	CooldownTrigger int `yaml:"cooldown_trigger"`
	// CooldownExitStreak is the success streak that exits cooldown.
	CooldownExitStreak int `yaml:"cooldown_exit_streak"`
	// SkipThreshold is the consecutive rate-limit count at which
	// strategies abort early.
	SkipThreshold int `yaml:"skip_threshold"`
	// RecentFailureWindow doubles the delay after a failure this recent.
	RecentFailureWindow Duration `yaml:"recent_failure_window"`
	// SearchDelayFactor multiplies the delay on search endpoints.
	SearchDelayFactor float64 `yaml:"search_delay_factor"`
}

// OrchestratorConfig parameterizes strategy sequencing and saturation
// detection. The source tuned these ad hoc; they are deliberately
// exposed rather than fixed.
type OrchestratorConfig struct {
	// OverfetchStop stops strategy execution once candidates reach
	// target*OverfetchStop (with MinStrategiesStop already run).
	OverfetchStop int `yaml:"overfetch_stop"`
	// MinStrategiesStop is the minimum strategy count before the
	// volume stop applies.
	MinStrategiesStop int `yaml:"min_strategies_stop"`
	// LowGainThreshold is the per-strategy gain below which a strategy
	// counts as low yield.
	LowGainThreshold int `yaml:"low_gain_threshold"`
	// LowGainRun is the consecutive low-yield strategy count that
	// triggers a saturation check.
	LowGainRun int `yaml:"low_gain_run"`
	// MinStrategiesSaturation is the minimum total strategies run
	// before saturation may be declared.
	MinStrategiesSaturation int `yaml:"min_strategies_saturation"`
	// SaturationMultiplier is the candidate volume floor, in multiples
	// of target, required to honor a saturation read.
	SaturationMultiplier int `yaml:"saturation_multiplier"`
	// TruncateMultiplier bounds the returned candidate list to
	// target*TruncateMultiplier.
	TruncateMultiplier int `yaml:"truncate_multiplier"`
	// DedupBatchSize chunks store existence checks.
	DedupBatchSize int `yaml:"dedup_batch_size"`
}

// ExecutorConfig parameterizes the concurrent fetch stage.
type ExecutorConfig struct {
	// Workers bounds concurrent detail fetches.
	Workers int `yaml:"workers"`
	// TaskTimeout is the independent per-fetch deadline.
	TaskTimeout Duration `yaml:"task_timeout"`
	// SaveRetries bounds persistence retries per item.
	SaveRetries int `yaml:"save_retries"`
	// SaveBackoffStep is the linear backoff increment between save
	// retries (step, 2*step, 3*step, ...).
	SaveBackoffStep Duration `yaml:"save_backoff_step"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Backend is one of: memory, sqlite, postgres.
	Backend string `yaml:"backend"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`
}

// ArchiveConfig configures the optional raw-JSON archive sink.
type ArchiveConfig struct {
	// Backend is one of: none, file, s3.
	Backend string `yaml:"backend"`
	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir"`
	// Bucket and Prefix locate objects for the s3 backend.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// AdapterConfig configures the crawl-completed event publisher.
type AdapterConfig struct {
	// Type is one of: none, redis, webhook.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// DefaultRate returns the canonical rate controller tuning. The faster
// of the source's two variants is the default; the conservative variant
// is a config file away.
func DefaultRate() RateConfig {
	return RateConfig{
		BaseDelay:           Duration{1 * time.Second},
		MinDelay:            Duration{500 * time.Millisecond},
		MaxDelay:            Duration{30 * time.Second},
		RecoveryStreak:      10,
		RecoveryFloor:       Duration{500 * time.Millisecond},
		CooldownTrigger:     2,
		CooldownExitStreak:  3,
		SkipThreshold:       5,
		RecentFailureWindow: Duration{60 * time.Second},
		SearchDelayFactor:   2.0,
	}
}

// DefaultOrchestrator returns the default saturation tuning.
func DefaultOrchestrator() OrchestratorConfig {
	return OrchestratorConfig{
		OverfetchStop:           3,
		MinStrategiesStop:       2,
		LowGainThreshold:        5,
		LowGainRun:              3,
		MinStrategiesSaturation: 4,
		SaturationMultiplier:    2,
		TruncateMultiplier:      2,
		DedupBatchSize:          100,
	}
}

// DefaultExecutor returns the default fetch executor tuning.
func DefaultExecutor() ExecutorConfig {
	return ExecutorConfig{
		Workers:         5,
		TaskTimeout:     Duration{60 * time.Second},
		SaveRetries:     3,
		SaveBackoffStep: Duration{2 * time.Second},
	}
}

// Default returns a fully populated Config.
func Default() Config {
	return Config{
		Profile:      "full",
		Rate:         DefaultRate(),
		Orchestrator: DefaultOrchestrator(),
		Executor:     DefaultExecutor(),
		Storage:      StorageConfig{Backend: "sqlite", Path: "crawler.db"},
		Archive:      ArchiveConfig{Backend: "none"},
		Adapter:      AdapterConfig{Type: "none"},
	}
}

// Load reads and parses a crawler.yaml file, layering it over Default().
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
