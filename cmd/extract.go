package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"subfuse/internal/api"
	"subfuse/internal/config"
	"subfuse/internal/ffmpeg"
	"subfuse/internal/recognize"
	"subfuse/internal/worker"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <video-file>",
	Short: "Extract subtitles from captions and speech combined",
	Long: `Extract runs both branches of the pipeline: on-screen captions are read
from sampled frames by a vision model, the audio track is transcribed, and the
two timestamped streams are merged into one deduplicated subtitle sequence.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	configPath  string
	output      string
	apiKey      string
	interval    float64
	concurrency int
	rpmLimit    int
	maxAttempts int
	metric      string
)

func init() {
	defaults := config.Default()

	extractCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file layered over the defaults")
	extractCmd.Flags().StringVarP(&output, "output", "o", "", "write subtitles to this file instead of stdout")
	extractCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default: $SUBFUSE_API_KEY or $GROQ_API_KEY)")
	extractCmd.Flags().Float64VarP(&interval, "interval", "i", defaults.Sampling.IntervalSec, "seconds between sampled frames")
	extractCmd.Flags().IntVarP(&concurrency, "concurrency", "j", defaults.Concurrency, "parallel recognition calls (1 = sequential)")
	extractCmd.Flags().IntVar(&rpmLimit, "rate-limit", defaults.Recognition.RPMLimit, "recognition requests per minute")
	extractCmd.Flags().IntVar(&maxAttempts, "max-attempts", defaults.Recognition.MaxAttempts, "attempts per frame before giving up")
	extractCmd.Flags().StringVar(&metric, "metric", defaults.Merge.Metric, "similarity metric: sequence or jarowinkler")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, videoPath, err := prepareRun(cmd, args[0])
	if err != nil {
		return err
	}

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := worker.ExtractSmartSubtitles(ctx, svc, worker.Options{
		VideoPath:   videoPath,
		IntervalSec: interval,
		Concurrency: concurrency,
		Cfg:         cfg,
	})
	if err != nil {
		return err
	}
	return writeResult(result)
}

// prepareRun loads and overlays configuration, then validates the input path.
func prepareRun(cmd *cobra.Command, inputPath string) (*config.Config, string, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Flags the user set explicitly win over the config file.
	if cmd.Flags().Changed("interval") {
		cfg.Sampling.IntervalSec = interval
	} else {
		interval = cfg.Sampling.IntervalSec
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	} else {
		concurrency = cfg.Concurrency
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.Recognition.RPMLimit = rpmLimit
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.Recognition.MaxAttempts = maxAttempts
	}
	if cmd.Flags().Changed("metric") {
		cfg.Merge.Metric = metric
	}
	if apiKey != "" {
		cfg.Recognition.APIKey = apiKey
		cfg.Transcription.APIKey = apiKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("file not found: %s", inputPath)
	}
	if !ffmpeg.IsVideoExtension(filepath.Ext(absPath)) {
		return nil, "", fmt.Errorf("unsupported file type: %s", filepath.Ext(absPath))
	}
	return cfg, absPath, nil
}

// buildServices wires the recognition and transcription clients from config.
func buildServices(cfg *config.Config) (worker.Services, error) {
	key := resolveAPIKey(cfg.Recognition.APIKey)
	if key == "" {
		return worker.Services{}, fmt.Errorf("no API key: use --api-key or set SUBFUSE_API_KEY")
	}

	client, err := recognize.NewClient(key, cfg.Recognition.Model,
		recognize.WithBaseURL(cfg.Recognition.BaseURL))
	if err != nil {
		return worker.Services{}, err
	}

	rec := &recognize.Retrying{
		Inner:   client,
		Limiter: recognize.NewLimiter(cfg.Recognition.RPMLimit),
		Retry: recognize.Retrier{
			MaxAttempts: cfg.Recognition.MaxAttempts,
			Base:        secondsToDuration(cfg.Recognition.BackoffBaseSec),
			Min:         secondsToDuration(cfg.Recognition.BackoffMinSec),
			Max:         secondsToDuration(cfg.Recognition.BackoffMaxSec),
		},
	}

	tr := &api.TranscriptionClient{
		URL:    cfg.Transcription.URL,
		Model:  cfg.Transcription.Model,
		APIKey: resolveAPIKey(cfg.Transcription.APIKey),
	}

	return worker.Services{Recognizer: rec, Transcriber: tr}, nil
}

func resolveAPIKey(configured string) string {
	if configured != "" {
		return configured
	}
	if key := os.Getenv("SUBFUSE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GROQ_API_KEY")
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func writeResult(result string) error {
	if output == "" {
		fmt.Println(result)
		return nil
	}
	if err := os.WriteFile(output, []byte(result+"\n"), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
