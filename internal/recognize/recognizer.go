// Package recognize drives the external caption recognition service: a
// rate-limited, retrying client that turns a JPEG frame into the literal
// caption text rendered in it, or an empty string when no caption is shown.
package recognize

import (
	"context"
	"fmt"
)

// Recognizer extracts visible caption text from a JPEG-encoded frame.
// An empty string with a nil error means the frame shows no caption.
type Recognizer interface {
	Recognize(ctx context.Context, jpeg []byte) (string, error)
}

// RecognitionError reports that a recognition call failed after all retry
// attempts were exhausted.
type RecognitionError struct {
	Attempts int
	Err      error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Retrying wraps a Recognizer with rate limiting and bounded retry. Every
// attempt waits on the limiter first, so spacing holds across retries too.
type Retrying struct {
	Inner   Recognizer
	Limiter *Limiter
	Retry   Retrier
}

// Recognize implements [Recognizer]. On exhaustion the original failure is
// surfaced wrapped in a [RecognitionError] carrying the number of attempts
// actually made. Context cancellation propagates unwrapped.
func (r *Retrying) Recognize(ctx context.Context, jpeg []byte) (string, error) {
	var text string
	attempts := 0
	err := r.Retry.Do(ctx, func(ctx context.Context) error {
		attempts++
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := r.Inner.Recognize(ctx, jpeg)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &RecognitionError{Attempts: attempts, Err: err}
	}
	return text, nil
}
