package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// MediaInfo holds stream information reported by ffprobe.
type MediaInfo struct {
	Duration float64
	FPS      float64
	Codec    string

	// HasStream reports whether the probed stream selector matched
	// anything; a video-only file probed for audio yields false.
	HasStream bool
}

// Available returns true if ffmpeg is on the PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// probeOutput mirrors ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// ProbeVideo uses ffprobe to get duration, frame rate and codec of the first
// video stream.
func ProbeVideo(ctx context.Context, path string) (*MediaInfo, error) {
	return probe(ctx, path, "v:0")
}

// ProbeAudio uses ffprobe to get duration and codec of the first audio stream.
func ProbeAudio(ctx context.Context, path string) (*MediaInfo, error) {
	return probe(ctx, path, "a:0")
}

func probe(ctx context.Context, path, stream string) (*MediaInfo, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-select_streams", stream,
		"-show_entries", "stream=codec_name,r_frame_rate:format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (*MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	dur, _ := strconv.ParseFloat(p.Format.Duration, 64)

	info := &MediaInfo{Duration: dur, Codec: "N/A"}
	if len(p.Streams) > 0 {
		info.HasStream = true
		if p.Streams[0].CodecName != "" {
			info.Codec = p.Streams[0].CodecName
		}
		info.FPS = parseFrameRate(p.Streams[0].RFrameRate)
	}
	return info, nil
}

// parseFrameRate converts an ffprobe rational like "30000/1001" to a float.
// Returns 0 for malformed or zero-denominator input.
func parseFrameRate(r string) float64 {
	if r == "" {
		return 0
	}
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		f, _ := strconv.ParseFloat(r, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// ExtractAudio copies the audio stream of a video file into outputPath
// without re-encoding.
func ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	slog.Info("extracting audio", "input", filepath.Base(videoPath), "output", filepath.Base(outputPath))

	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-i", videoPath,
		"-vn", "-c:a", "copy", "-y",
		outputPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio failed: %w\n%s", err, string(out))
	}
	return nil
}

// IsVideoExtension returns true for common video file extensions.
func IsVideoExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".mkv", ".mov", ".avi", ".flv", ".webm":
		return true
	}
	return false
}

// LogMediaInfo logs file size and video stream information.
func LogMediaInfo(ctx context.Context, path string) *MediaInfo {
	stat, err := os.Stat(path)
	if err != nil {
		slog.Warn("cannot stat file", "path", path, "err", err)
		return nil
	}

	sizeMB := float64(stat.Size()) / (1024 * 1024)
	msg := fmt.Sprintf("file size: %.2f MB", sizeMB)

	info, err := ProbeVideo(ctx, path)
	if err == nil && info != nil {
		minutes := int(info.Duration) / 60
		seconds := int(info.Duration) % 60
		msg += fmt.Sprintf(" | duration: %02d:%02d | fps: %.2f | codec: %s",
			minutes, seconds, info.FPS, info.Codec)
	}

	slog.Info(msg)
	return info
}
