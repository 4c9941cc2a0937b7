package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"subfuse/internal/pipeline"
	"subfuse/internal/recognize"
	"subfuse/internal/sampler"
)

// frameSource is the single-pass frame iterator the drivers consume.
// *sampler.Stream satisfies it; tests substitute fakes.
type frameSource interface {
	Next() (sampler.Frame, error)
}

// recognizeSequential drives recognition over the frame stream one frame at
// a time. A frame whose recognition fails after retries is skipped with a
// warning; a single bad frame never aborts the extraction.
func recognizeSequential(ctx context.Context, src frameSource, rec recognize.Recognizer, filter *pipeline.Filter) ([]pipeline.Cue, error) {
	var cues []pipeline.Cue

	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		text, err := rec.Recognize(ctx, frame.JPEG)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("frame recognition failed, skipping",
				"timestamp", fmt.Sprintf("%.1fs", frame.Timestamp), "err", err)
			continue
		}

		cleaned := filter.Apply(text)
		slog.Debug("frame processed",
			"timestamp", fmt.Sprintf("%.1fs", frame.Timestamp),
			"caption", cleaned != "")
		if cleaned != "" {
			cues = append(cues, pipeline.Cue{Timestamp: frame.Timestamp, Text: cleaned})
		}
	}

	return cues, nil
}
