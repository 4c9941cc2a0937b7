package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.m4a")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestTranscribe_RendersSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Errorf("model field = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format field = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"text": "你好 世界",
			"segments": [
				{"start": 0.4, "text": " 你好 "},
				{"start": 3.0, "text": ""},
				{"start": 7.9, "text": "世界"}
			]
		}`)
	}))
	defer srv.Close()

	c := &TranscriptionClient{
		URL:    srv.URL,
		Model:  "whisper-large-v3",
		APIKey: "test-key",
	}

	got, err := c.Transcribe(context.Background(), writeTempAudio(t), nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := "[0s] 你好\n[7s] 世界"
	if got != want {
		t.Errorf("Transcribe = %q, want %q", got, want)
	}
}

func TestTranscribe_StatusErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &TranscriptionClient{URL: srv.URL, Model: "m", APIKey: "k"}
	_, err := c.Transcribe(context.Background(), writeTempAudio(t), nil)

	var te *TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("Transcribe = %v, want TranscriptionError", err)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	c := &TranscriptionClient{URL: "http://localhost:0", Model: "m", APIKey: "k"}
	_, err := c.Transcribe(context.Background(), "/does/not/exist.m4a", nil)

	var te *TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("Transcribe = %v, want TranscriptionError", err)
	}
}

func TestRenderSegments_Empty(t *testing.T) {
	if got := renderSegments(nil); got != "" {
		t.Errorf("renderSegments(nil) = %q, want empty", got)
	}
	if got := renderSegments([]Segment{{Start: 1, Text: "  "}}); got != "" {
		t.Errorf("renderSegments(blank) = %q, want empty", got)
	}
}
