// Package sampler extracts a lazy, time-stamped subsequence of frames from a
// video file. Frames are pulled from a single ffmpeg pass as concatenated
// JPEG images on a pipe, so the video is never buffered whole in memory.
package sampler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"

	"subfuse/internal/ffmpeg"
)

// Frame is one sampled video frame, JPEG-encoded, with its presentation
// timestamp in seconds.
type Frame struct {
	Timestamp float64
	JPEG      []byte
}

// DecodeError indicates the video source could not be opened or produced no
// frames at all. It is fatal for the extraction run.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Stream is a single-pass frame iterator. It is not restartable; call Close
// when done to release the decoder process.
type Stream struct {
	path     string
	fps      float64
	interval int // frame spacing between samples

	cmd    *exec.Cmd
	out    *bufio.Reader
	stderr bytes.Buffer

	emitted int
	done    bool
}

// frameIntervalFor converts a sampling interval in seconds to a frame count,
// never below 1.
func frameIntervalFor(fps, intervalSeconds float64) int {
	n := int(math.Round(fps * intervalSeconds))
	if n < 1 {
		return 1
	}
	return n
}

// Sample opens path and returns a Stream yielding every interval-th frame,
// downscaled to at most maxWidth pixels wide (aspect ratio preserved).
// Returns a [DecodeError] when the source cannot be probed or the decoder
// cannot start.
func Sample(ctx context.Context, path string, intervalSeconds float64, maxWidth int) (*Stream, error) {
	info, err := ffmpeg.ProbeVideo(ctx, path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	fps := info.FPS
	if fps <= 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no usable frame rate in video stream")}
	}

	interval := frameIntervalFor(fps, intervalSeconds)
	slog.Info("sampling frames",
		"fps", fmt.Sprintf("%.2f", fps),
		"frame_interval", interval,
		"interval_sec", intervalSeconds)

	// Downscale only: frames narrower than maxWidth pass through untouched.
	filter := fmt.Sprintf("select='not(mod(n\\,%d))',scale=w='min(iw\\,%d)':h=-2", interval, maxWidth)

	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-i", path,
		"-vf", filter,
		"-vsync", "vfr",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	s := &Stream{
		path:     path,
		fps:      fps,
		interval: interval,
		cmd:      cmd,
		out:      bufio.NewReaderSize(stdout, 1<<20),
	}
	cmd.Stderr = &s.stderr

	if err := cmd.Start(); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return s, nil
}

// Next returns the next sampled frame. It returns io.EOF when the stream is
// exhausted, or a [DecodeError] when the decoder finished without having
// produced a single frame.
func (s *Stream) Next() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	jpeg, err := scanJPEG(s.out)
	if err != nil {
		s.done = true
		waitErr := s.wait()
		if s.emitted == 0 {
			if waitErr == nil {
				waitErr = fmt.Errorf("video produced no frames")
			}
			return Frame{}, &DecodeError{Path: s.path, Err: waitErr}
		}
		if err != io.EOF {
			return Frame{}, fmt.Errorf("read frame stream: %w", err)
		}
		return Frame{}, io.EOF
	}

	// The k-th emitted frame is source frame k*interval.
	ts := float64(s.emitted*s.interval) / s.fps
	s.emitted++
	return Frame{Timestamp: ts, JPEG: jpeg}, nil
}

// Close terminates the decoder. Safe to call more than once.
func (s *Stream) Close() error {
	if s.cmd != nil && s.cmd.Process != nil && !s.done {
		s.cmd.Process.Kill()
	}
	s.done = true
	return nil
}

func (s *Stream) wait() error {
	if s.cmd == nil {
		return nil
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w\n%s", err, s.stderr.String())
	}
	return nil
}

// scanJPEG reads one complete JPEG image (SOI through EOI marker) from r.
// MJPEG output is a plain concatenation of baseline JPEGs, and 0xFFD9 cannot
// occur inside entropy-coded data, so marker scanning is sufficient.
func scanJPEG(r *bufio.Reader) ([]byte, error) {
	// Seek the SOI marker, skipping any padding between frames.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		nxt, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if nxt == 0xD8 {
			break
		}
	}

	buf := []byte{0xFF, 0xD8}
	prev := byte(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, b)
		if prev == 0xFF && b == 0xD9 {
			return buf, nil
		}
		prev = b
	}
}
