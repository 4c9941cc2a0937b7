package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"subfuse/internal/pipeline"
	"subfuse/internal/recognize"
)

// recognizeConcurrent fans frames out to a bounded worker group. Frames are
// still pulled from the stream one at a time (it is single-pass); SetLimit
// back-pressures the reader, so memory stays bounded. The shared rate
// limiter inside the recognizer keeps request spacing regardless of fan-out.
// Results are re-sorted by timestamp before returning.
func recognizeConcurrent(ctx context.Context, src frameSource, rec recognize.Recognizer, filter *pipeline.Filter, limit int) ([]pipeline.Cue, error) {
	slog.Info("concurrent recognition enabled", "limit", limit)

	var (
		mu   sync.Mutex
		cues []pipeline.Cue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var readErr error
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}

		g.Go(func() error {
			text, err := rec.Recognize(gctx, frame.JPEG)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("frame recognition failed, skipping",
					"timestamp", fmt.Sprintf("%.1fs", frame.Timestamp), "err", err)
				return nil
			}
			if cleaned := filter.Apply(text); cleaned != "" {
				mu.Lock()
				cues = append(cues, pipeline.Cue{Timestamp: frame.Timestamp, Text: cleaned})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}

	sort.Slice(cues, func(i, j int) bool {
		return cues[i].Timestamp < cues[j].Timestamp
	})
	return cues, nil
}
