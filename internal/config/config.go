package config

import "fmt"

// Similarity metric names accepted in MergeConfig.Metric.
const (
	MetricSequence    = "sequence"
	MetricJaroWinkler = "jarowinkler"
)

// RecognitionConfig holds settings for the frame caption recognition service.
type RecognitionConfig struct {
	// Model is the vision model identifier sent with every request.
	Model string `yaml:"model"`

	// BaseURL overrides the service endpoint. Any OpenAI-compatible
	// chat-completions endpoint works; leave empty for the default.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. When empty the worker falls back to
	// the SUBFUSE_API_KEY / GROQ_API_KEY environment variables.
	APIKey string `yaml:"api_key"`

	// RPMLimit is the maximum requests per minute; the limiter enforces a
	// minimum spacing of 60/RPMLimit seconds between calls.
	RPMLimit int `yaml:"rpm_limit"`

	// MaxAttempts is the total attempt count per frame, including the first.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBaseSec, BackoffMinSec and BackoffMaxSec shape the exponential
	// wait between attempts: base*2^n clamped to [min, max].
	BackoffBaseSec float64 `yaml:"backoff_base_sec"`
	BackoffMinSec  float64 `yaml:"backoff_min_sec"`
	BackoffMaxSec  float64 `yaml:"backoff_max_sec"`
}

// TranscriptionConfig holds settings for the speech-to-text service.
type TranscriptionConfig struct {
	Model  string `yaml:"model"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// SamplingConfig controls frame extraction from the video stream.
type SamplingConfig struct {
	// IntervalSec is the target spacing between sampled frames in seconds.
	IntervalSec float64 `yaml:"interval_sec"`

	// MaxFrameWidth caps the width of emitted frames; wider frames are
	// downscaled proportionally before recognition.
	MaxFrameWidth int `yaml:"max_frame_width"`
}

// MergeConfig tunes the cross-stream alignment and final deduplication.
// The default thresholds are empirical; they are configuration precisely
// so they can be tuned.
type MergeConfig struct {
	// WindowSec is the timestamp tolerance for matching a video caption
	// against an audio segment.
	WindowSec float64 `yaml:"window_sec"`

	// MatchThreshold is the minimum similarity for a cross-stream match.
	MatchThreshold float64 `yaml:"match_threshold"`

	// DedupThreshold is the similarity above which a later entry is dropped
	// as a near-duplicate of an earlier one.
	DedupThreshold float64 `yaml:"dedup_threshold"`

	// Metric selects the similarity function: "sequence" or "jarowinkler".
	Metric string `yaml:"metric"`
}

// FilterConfig configures recognizer-noise rejection.
type FilterConfig struct {
	// MaxCaptionLen rejects recognizer output longer than this many runes;
	// long outputs are assumed to be explanations rather than captions.
	MaxCaptionLen int `yaml:"max_caption_len"`

	// IgnorePhrases rejects output containing any of these substrings,
	// which mark meta-commentary instead of literal caption text.
	IgnorePhrases []string `yaml:"ignore_phrases"`

	// Watermarks are branding substrings stripped from accepted text.
	Watermarks []string `yaml:"watermarks"`
}

// Config is the full application configuration.
type Config struct {
	Recognition   RecognitionConfig   `yaml:"recognition"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Sampling      SamplingConfig      `yaml:"sampling"`
	Merge         MergeConfig         `yaml:"merge"`
	Filter        FilterConfig        `yaml:"filter"`

	// Concurrency bounds parallel recognition calls. 1 keeps the pipeline
	// strictly sequential.
	Concurrency int `yaml:"concurrency"`
}

// Default returns a Config with the reference defaults.
func Default() *Config {
	return &Config{
		Recognition: RecognitionConfig{
			Model:          "llama-3.2-90b-vision-preview",
			BaseURL:        "https://api.groq.com/openai/v1",
			RPMLimit:       15,
			MaxAttempts:    3,
			BackoffBaseSec: 1,
			BackoffMinSec:  4,
			BackoffMaxSec:  10,
		},
		Transcription: TranscriptionConfig{
			Model: "whisper-large-v3",
			URL:   "https://api.groq.com/openai/v1/audio/transcriptions",
		},
		Sampling: SamplingConfig{
			IntervalSec:   1.0,
			MaxFrameWidth: 1920,
		},
		Merge: MergeConfig{
			WindowSec:      2.0,
			MatchThreshold: 0.3,
			DedupThreshold: 0.7,
			Metric:         MetricSequence,
		},
		Filter: FilterConfig{
			MaxCaptionLen: 50,
			IgnorePhrases: []string{
				"图片中", "显示", "字幕是", "内容是", "文字是",
				"我看到", "这是", "这个", "字幕内容", "文本", "识别到",
				"the image shows", "the image contains", "subtitle is",
				"i can see", "there is no", "no subtitle",
			},
			Watermarks: []string{"抖音"},
		},
		Concurrency: 1,
	}
}

// Validate reports the first configuration error found, or nil.
func (c *Config) Validate() error {
	if c.Recognition.RPMLimit <= 0 {
		return fmt.Errorf("recognition.rpm_limit must be positive, got %d", c.Recognition.RPMLimit)
	}
	if c.Recognition.MaxAttempts < 1 {
		return fmt.Errorf("recognition.max_attempts must be at least 1, got %d", c.Recognition.MaxAttempts)
	}
	if c.Recognition.BackoffMinSec > c.Recognition.BackoffMaxSec {
		return fmt.Errorf("recognition backoff floor %.1fs exceeds ceiling %.1fs",
			c.Recognition.BackoffMinSec, c.Recognition.BackoffMaxSec)
	}
	if c.Sampling.IntervalSec <= 0 {
		return fmt.Errorf("sampling.interval_sec must be positive, got %g", c.Sampling.IntervalSec)
	}
	if c.Sampling.MaxFrameWidth <= 0 {
		return fmt.Errorf("sampling.max_frame_width must be positive, got %d", c.Sampling.MaxFrameWidth)
	}
	if c.Merge.WindowSec < 0 {
		return fmt.Errorf("merge.window_sec must not be negative, got %g", c.Merge.WindowSec)
	}
	for name, v := range map[string]float64{
		"merge.match_threshold": c.Merge.MatchThreshold,
		"merge.dedup_threshold": c.Merge.DedupThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %g", name, v)
		}
	}
	switch c.Merge.Metric {
	case MetricSequence, MetricJaroWinkler:
	default:
		return fmt.Errorf("unknown merge.metric %q", c.Merge.Metric)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}
