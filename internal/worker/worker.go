// Package worker orchestrates the extraction pipeline end to end: staging a
// temporary copy of the video, the caption branch (frame sampling →
// recognition → filtering), the speech branch (audio extraction →
// transcription), the merge, and the rendered "[Ns] text" output.
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"subfuse/internal/api"
	"subfuse/internal/config"
	"subfuse/internal/ffmpeg"
	"subfuse/internal/pipeline"
	"subfuse/internal/recognize"
	"subfuse/internal/sampler"
)

// Fixed user-facing messages, returned as normal output rather than errors.
const (
	MsgNoFile    = "no video file supplied"
	MsgNoContent = "no usable subtitle content found"
)

// Transcriber is the audio-branch collaborator boundary: it turns an audio
// file into "[Ns] text" transcript lines.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, progress api.ProgressFunc) (string, error)
}

// Services bundles the external collaborators the worker drives.
type Services struct {
	Recognizer  recognize.Recognizer
	Transcriber Transcriber
}

// Options configures one pipeline invocation.
type Options struct {
	VideoPath   string
	IntervalSec float64
	Concurrency int
	Cfg         *config.Config
}

// ExtractSmartSubtitles runs both branches and merges them into one
// deduplicated subtitle track.
func ExtractSmartSubtitles(ctx context.Context, svc Services, opts Options) (string, error) {
	if opts.VideoPath == "" {
		return MsgNoFile, nil
	}

	tempVideo, cleanup, err := stageVideo(opts.VideoPath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	slog.Info("smart subtitle extraction started", "input", filepath.Base(opts.VideoPath))
	ffmpeg.LogMediaInfo(ctx, tempVideo)

	videoCues, err := extractVideoCues(ctx, svc.Recognizer, tempVideo, opts)
	if err != nil {
		return "", err
	}
	slog.Info("caption branch done", "cues", len(videoCues))

	audioCues := audioBranch(ctx, svc.Transcriber, tempVideo)
	slog.Info("speech branch done", "cues", len(audioCues))

	merger, err := mergerFromConfig(opts.Cfg)
	if err != nil {
		return "", err
	}
	merged := merger.Merge(videoCues, audioCues)
	if len(merged) == 0 {
		return MsgNoContent, nil
	}
	return pipeline.Format(merged), nil
}

// ExtractVideoSubtitles runs only the caption branch: sampled frames through
// recognition and filtering, split into sentences and deduplicated.
func ExtractVideoSubtitles(ctx context.Context, svc Services, opts Options) (string, error) {
	if opts.VideoPath == "" {
		return MsgNoFile, nil
	}

	tempVideo, cleanup, err := stageVideo(opts.VideoPath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	slog.Info("caption extraction started",
		"input", filepath.Base(opts.VideoPath),
		"interval_sec", opts.IntervalSec)
	ffmpeg.LogMediaInfo(ctx, tempVideo)

	cues, err := extractVideoCues(ctx, svc.Recognizer, tempVideo, opts)
	if err != nil {
		return "", err
	}

	merger, err := mergerFromConfig(opts.Cfg)
	if err != nil {
		return "", err
	}
	deduped := merger.Dedup(expandSentences(cues))
	if len(deduped) == 0 {
		return MsgNoContent, nil
	}
	return pipeline.FormatCues(deduped), nil
}

// stageVideo copies the input into a temporary file owned by this run.
// The returned cleanup removes it and never fails the caller.
func stageVideo(path string) (string, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open video: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "subfuse_video_*"+filepath.Ext(path))
	if err != nil {
		return "", nil, fmt.Errorf("create temp video: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("stage video: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("stage video: %w", err)
	}

	name := tmp.Name()
	cleanup := func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			slog.Debug("temp video cleanup", "file", filepath.Base(name), "err", err)
		}
	}
	return name, cleanup, nil
}

// extractVideoCues runs the caption branch over the staged video.
func extractVideoCues(ctx context.Context, rec recognize.Recognizer, videoPath string, opts Options) ([]pipeline.Cue, error) {
	stream, err := sampler.Sample(ctx, videoPath, opts.IntervalSec, opts.Cfg.Sampling.MaxFrameWidth)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	filter := filterFromConfig(opts.Cfg)
	if opts.Concurrency > 1 {
		return recognizeConcurrent(ctx, stream, rec, filter, opts.Concurrency)
	}
	return recognizeSequential(ctx, stream, rec, filter)
}

// audioBranch extracts and transcribes the audio track. Every failure here
// degrades to an empty stream with a warning; the merge still runs.
func audioBranch(ctx context.Context, tr Transcriber, videoPath string) []pipeline.Cue {
	if tr == nil {
		slog.Warn("no transcriber configured, skipping speech branch")
		return nil
	}
	if !ffmpeg.Available() {
		slog.Warn("ffmpeg not found, skipping speech branch")
		return nil
	}
	if info, err := ffmpeg.ProbeAudio(ctx, videoPath); err == nil && !info.HasStream {
		slog.Info("no audio stream, skipping speech branch")
		return nil
	}

	tmp, err := os.CreateTemp("", "subfuse_audio_*.m4a")
	if err != nil {
		slog.Warn("speech branch degraded", "stage", "temp file", "err", err)
		return nil
	}
	audioPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			slog.Debug("temp audio cleanup", "file", filepath.Base(audioPath), "err", err)
		}
	}()

	if err := ffmpeg.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		slog.Warn("speech branch degraded", "stage", "audio extraction", "err", err)
		return nil
	}

	progress := func(read, total int64) {
		pct := 0.0
		if total > 0 {
			pct = math.Min(float64(read)/float64(total)*100, 100)
		}
		slog.Debug("upload progress", "percent", fmt.Sprintf("%.1f%%", pct))
	}

	transcript, err := tr.Transcribe(ctx, audioPath, progress)
	if err != nil {
		slog.Warn("speech branch degraded", "stage", "transcription", "err", err)
		return nil
	}
	return pipeline.ParseCues(transcript)
}

// expandSentences splits multi-sentence captions into one cue per sentence,
// keeping the frame timestamp.
func expandSentences(cues []pipeline.Cue) []pipeline.Cue {
	out := make([]pipeline.Cue, 0, len(cues))
	for _, c := range cues {
		for _, s := range pipeline.SplitSentences(c.Text) {
			out = append(out, pipeline.Cue{Timestamp: c.Timestamp, Text: s})
		}
	}
	return out
}

func filterFromConfig(cfg *config.Config) *pipeline.Filter {
	return &pipeline.Filter{
		MaxLen:        cfg.Filter.MaxCaptionLen,
		IgnorePhrases: cfg.Filter.IgnorePhrases,
		Watermarks:    cfg.Filter.Watermarks,
	}
}

func mergerFromConfig(cfg *config.Config) (*pipeline.Merger, error) {
	metric, err := pipeline.MetricByName(cfg.Merge.Metric)
	if err != nil {
		return nil, err
	}
	return &pipeline.Merger{
		Window:         cfg.Merge.WindowSec,
		MatchThreshold: cfg.Merge.MatchThreshold,
		DedupThreshold: cfg.Merge.DedupThreshold,
		Similarity:     metric,
		Watermarks:     cfg.Filter.Watermarks,
	}, nil
}
