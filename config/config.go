package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tagwarden/tagwarden/remediate"
	"github.com/tagwarden/tagwarden/types"
)

// TagRuleConfig declares one required tag. An absent allowed_values list
// means any value is accepted once the key is present.
type TagRuleConfig struct {
	Key           string   `yaml:"key"`
	AllowedValues []string `yaml:"allowed_values,omitempty"`
}

// Config is the immutable run configuration handed to the engine at
// construction. No process-wide mutable globals.
type Config struct {
	Region           string            `yaml:"region"`
	RequiredTags     []TagRuleConfig   `yaml:"required_tags"`
	ApplyTags        map[string]string `yaml:"apply_tags,omitempty"`
	BatchSize        int               `yaml:"batch_size,omitempty"`
	MaxRetries       int               `yaml:"max_retries,omitempty"`
	BackoffBase      time.Duration     `yaml:"backoff_base,omitempty"`
	CallTimeout      time.Duration     `yaml:"call_timeout,omitempty"`
	DryRun           bool              `yaml:"dry_run,omitempty"`
	ConcurrencyLimit int               `yaml:"concurrency_limit,omitempty"`
}

// Load reads and validates configuration from file. Structural errors
// fail here, before any remote call.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate ensures the config can drive a run.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if len(c.RequiredTags) == 0 {
		return fmt.Errorf("at least one required tag is needed")
	}
	for i, rule := range c.RequiredTags {
		if rule.Key == "" {
			return fmt.Errorf("required_tags[%d] has empty key", i)
		}
	}
	if c.BatchSize < 0 || c.BatchSize > remediate.MaxBatchSize {
		return fmt.Errorf("batch_size must be between 0 and %d", remediate.MaxBatchSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.ConcurrencyLimit < 0 {
		return fmt.Errorf("concurrency_limit must not be negative")
	}
	return nil
}

// RuleSet builds the immutable rule set from the declared required tags.
func (c *Config) RuleSet() (types.RuleSet, error) {
	rules := make([]types.TagRule, 0, len(c.RequiredTags))
	for _, rc := range c.RequiredTags {
		rules = append(rules, types.NewTagRule(rc.Key, rc.AllowedValues...))
	}
	return types.NewRuleSet(rules...)
}

// RemediateOptions translates the config into remediator options.
func (c *Config) RemediateOptions() remediate.Options {
	return remediate.Options{
		BatchSize:   c.BatchSize,
		MaxRetries:  c.MaxRetries,
		BackoffBase: c.BackoffBase,
		DryRun:      c.DryRun,
	}
}
