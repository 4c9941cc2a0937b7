package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Recognition.RPMLimit != 15 {
		t.Errorf("RPMLimit = %d, want 15", cfg.Recognition.RPMLimit)
	}
	if cfg.Recognition.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Recognition.MaxAttempts)
	}
	if cfg.Sampling.IntervalSec != 1.0 {
		t.Errorf("IntervalSec = %g, want 1.0", cfg.Sampling.IntervalSec)
	}
	if cfg.Merge.WindowSec != 2.0 {
		t.Errorf("WindowSec = %g, want 2.0", cfg.Merge.WindowSec)
	}
	if cfg.Merge.MatchThreshold != 0.3 || cfg.Merge.DedupThreshold != 0.7 {
		t.Errorf("thresholds = %g/%g, want 0.3/0.7",
			cfg.Merge.MatchThreshold, cfg.Merge.DedupThreshold)
	}
	if cfg.Merge.Metric != MetricSequence {
		t.Errorf("Metric = %q, want %q", cfg.Merge.Metric, MetricSequence)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rpm", func(c *Config) { c.Recognition.RPMLimit = 0 }},
		{"zero attempts", func(c *Config) { c.Recognition.MaxAttempts = 0 }},
		{"inverted backoff bounds", func(c *Config) {
			c.Recognition.BackoffMinSec = 10
			c.Recognition.BackoffMaxSec = 4
		}},
		{"zero interval", func(c *Config) { c.Sampling.IntervalSec = 0 }},
		{"zero frame width", func(c *Config) { c.Sampling.MaxFrameWidth = 0 }},
		{"negative window", func(c *Config) { c.Merge.WindowSec = -1 }},
		{"threshold above one", func(c *Config) { c.Merge.MatchThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Merge.DedupThreshold = -0.1 }},
		{"unknown metric", func(c *Config) { c.Merge.Metric = "levenshtein" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadFromReaderLayersOverDefaults(t *testing.T) {
	in := `
recognition:
  model: llava-v1.6
  rpm_limit: 30
merge:
  metric: jarowinkler
filter:
  watermarks: ["快手"]
`
	cfg, err := LoadFromReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Recognition.Model != "llava-v1.6" {
		t.Errorf("Model = %q, want llava-v1.6", cfg.Recognition.Model)
	}
	if cfg.Recognition.RPMLimit != 30 {
		t.Errorf("RPMLimit = %d, want 30", cfg.Recognition.RPMLimit)
	}
	if cfg.Merge.Metric != MetricJaroWinkler {
		t.Errorf("Metric = %q, want %q", cfg.Merge.Metric, MetricJaroWinkler)
	}
	if len(cfg.Filter.Watermarks) != 1 || cfg.Filter.Watermarks[0] != "快手" {
		t.Errorf("Watermarks = %v, want [快手]", cfg.Filter.Watermarks)
	}

	// Untouched sections keep their defaults.
	if cfg.Merge.WindowSec != 2.0 {
		t.Errorf("WindowSec = %g, want default 2.0", cfg.Merge.WindowSec)
	}
	if cfg.Transcription.Model != "whisper-large-v3" {
		t.Errorf("Transcription.Model = %q, want default", cfg.Transcription.Model)
	}
}

func TestLoadFromReaderRejectsUnknownKeys(t *testing.T) {
	in := "recognition:\n  modle: typo\n"
	if _, err := LoadFromReader(strings.NewReader(in)); err == nil {
		t.Error("unknown key accepted, want decode error")
	}
}

func TestLoadFromReaderEmptyInput(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Recognition.RPMLimit != 15 {
		t.Errorf("empty input should yield defaults, RPMLimit = %d", cfg.Recognition.RPMLimit)
	}
}

func TestLoadFromReaderValidatesResult(t *testing.T) {
	in := "concurrency: 0\n"
	if _, err := LoadFromReader(strings.NewReader(in)); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/subfuse.yaml"); err == nil {
		t.Error("Load on missing file = nil error")
	}
}
