package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quaylabs/marketscout/pkg/pipeline"
	"github.com/quaylabs/marketscout/pkg/strategy"
)

// Settings holds the resilience and ladder knobs, loadable from
// ~/.marketscout/settings.yaml. Durations are plain integers (seconds or
// milliseconds) to keep the YAML obvious.
type Settings struct {
	Backend string `yaml:"backend,omitempty"`
	Model   string `yaml:"model,omitempty"`

	MaxAttempts   int `yaml:"max_attempts,omitempty"`
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	CallTimeoutS  int `yaml:"call_timeout_s,omitempty"`

	MaxStrategyAttempts int               `yaml:"max_strategy_attempts,omitempty"`
	Strategies          []StrategySetting `yaml:"strategies,omitempty"`

	ReportDir string `yaml:"report_dir,omitempty"`
}

// StrategySetting defines one ladder rung in the settings file.
type StrategySetting struct {
	Name        string `yaml:"name"`
	TimeBudgetS int    `yaml:"time_budget_s"`
	TaskSet     string `yaml:"task_set"`
}

// DefaultSettings returns the settings the original pipeline was tuned with.
func DefaultSettings() *Settings {
	return &Settings{
		Backend:       "google",
		Model:         "gemini-2.0-flash",
		MaxAttempts:   5,
		BaseBackoffMs: 10_000,
		CallTimeoutS:  120,
	}
}

// LoadSettings reads settings from a YAML file, filling gaps with defaults.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	for _, s := range settings.Strategies {
		if s.Name == "" || s.TimeBudgetS <= 0 {
			return nil, fmt.Errorf("strategy entries need a name and a positive time_budget_s")
		}
		switch pipeline.SetID(s.TaskSet) {
		case pipeline.SetFull, pipeline.SetQuick, pipeline.SetEmergency:
		default:
			return nil, fmt.Errorf("strategy %s references unknown task set %q", s.Name, s.TaskSet)
		}
	}

	return settings, nil
}

// BaseBackoff returns the base backoff delay as a duration.
func (s *Settings) BaseBackoff() time.Duration {
	return time.Duration(s.BaseBackoffMs) * time.Millisecond
}

// CallTimeout returns the per-call deadline as a duration.
func (s *Settings) CallTimeout() time.Duration {
	return time.Duration(s.CallTimeoutS) * time.Second
}

// Ladder builds the strategy ladder from the settings, falling back to the
// default three-rung ladder when none is configured.
func (s *Settings) Ladder() *strategy.Ladder {
	if len(s.Strategies) == 0 {
		return strategy.DefaultLadder()
	}
	rungs := make([]strategy.Strategy, 0, len(s.Strategies))
	for _, entry := range s.Strategies {
		rungs = append(rungs, strategy.Strategy{
			Name:       entry.Name,
			TimeBudget: time.Duration(entry.TimeBudgetS) * time.Second,
			TaskSet:    pipeline.SetID(entry.TaskSet),
		})
	}
	return strategy.NewLadder(rungs)
}
