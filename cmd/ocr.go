package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"subfuse/internal/worker"

	"github.com/spf13/cobra"
)

// Sampling presets: fewer frames for speed, more for accuracy.
var modeIntervals = map[string]float64{
	"fast":     1.3,
	"standard": 1.0,
	"precise":  0.7,
}

var ocrCmd = &cobra.Command{
	Use:   "ocr <video-file>",
	Short: "Extract on-screen captions only",
	Long: `Ocr runs the caption branch alone: frames are sampled from the video,
read by a vision model, filtered and deduplicated. The audio track is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

var mode string

func init() {
	ocrCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file layered over the defaults")
	ocrCmd.Flags().StringVarP(&output, "output", "o", "", "write subtitles to this file instead of stdout")
	ocrCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default: $SUBFUSE_API_KEY or $GROQ_API_KEY)")
	ocrCmd.Flags().Float64VarP(&interval, "interval", "i", 0, "seconds between sampled frames (overrides --mode)")
	ocrCmd.Flags().StringVarP(&mode, "mode", "m", "standard", "sampling preset: fast, standard, precise")
	ocrCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 1, "parallel recognition calls (1 = sequential)")

	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	preset, ok := modeIntervals[mode]
	if !ok {
		return fmt.Errorf("unknown mode %q: want fast, standard or precise", mode)
	}

	cfg, videoPath, err := prepareRun(cmd, args[0])
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("interval") {
		interval = preset
		cfg.Sampling.IntervalSec = preset
	}

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := worker.ExtractVideoSubtitles(ctx, svc, worker.Options{
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
