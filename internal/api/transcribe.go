// Package api holds the client for the external speech transcription
// service. The service accepts an audio file and returns timestamped
// segments; the client renders them in the "[Ns] text" line form the merge
// consumes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subfuse/internal/pipeline"
)

const uploadTimeout = 30 * time.Minute

// TranscriptionError reports that the audio branch failed: upload, service
// error, or an undecodable response.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Segment is one timestamped piece of a verbose transcript.
type Segment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// transcriptResponse mirrors the verbose_json response shape.
type transcriptResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// ProgressFunc is called with (bytesRead, totalBytes) during upload.
type ProgressFunc func(bytesRead, totalBytes int64)

// progressReader wraps an io.Reader and reports progress.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	if pr.callback != nil {
		pr.callback(pr.read, pr.total)
	}
	return n, err
}

// mimeFromExt returns the MIME type for common audio extensions.
func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a":
		return "audio/m4a"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}

// TranscriptionClient uploads audio to an OpenAI-compatible transcription
// endpoint and renders the timestamped result.
type TranscriptionClient struct {
	URL    string
	Model  string
	APIKey string

	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Transcribe uploads the audio file at filePath and returns the transcript
// as "[Ns] text" lines in segment order. An empty string means the service
// recognized no speech. Failures are wrapped in [TranscriptionError].
func (c *TranscriptionClient) Transcribe(ctx context.Context, filePath string, progress ProgressFunc) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("open file: %w", err)}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("stat file: %w", err)}
	}
	fileSize := stat.Size()

	// Build multipart form body using a pipe.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// Write form fields and file in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		if err := mw.WriteField("model", c.Model); err != nil {
			errCh <- err
			return
		}
		if err := mw.WriteField("response_format", "verbose_json"); err != nil {
			errCh <- err
			return
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(filePath)))
		h.Set("Content-Type", mimeFromExt(filepath.Ext(filePath)))
		part, err := mw.CreatePart(h)
		if err != nil {
			errCh <- err
			return
		}

		if _, err := io.Copy(part, f); err != nil {
			errCh <- err
			return
		}

		errCh <- nil
	}()

	// Estimate total size: file size + ~1KB form overhead.
	body := &progressReader{
		reader:   pr,
		total:    fileSize + 1024,
		callback: progress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: uploadTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	// Check for write error.
	if writeErr := <-errCh; writeErr != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("multipart write error: %w", writeErr)}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &TranscriptionError{Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	var transcript transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return renderSegments(transcript.Segments), nil
}

// renderSegments formats non-empty segments as "[Ns] text" lines.
func renderSegments(segments []Segment) string {
	var lines []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, pipeline.FormatLine(seg.Start, text))
	}
	return strings.Join(lines, "\n")
}
