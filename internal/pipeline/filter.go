package pipeline

import (
	"strings"
	"unicode/utf8"
)

// Filter normalizes recognizer output and rejects likely hallucinations.
// The zero value passes everything through; use the configured phrase and
// watermark lists in production.
type Filter struct {
	// MaxLen rejects raw output longer than this many runes. Vision models
	// asked for caption text sometimes answer with a description instead;
	// real captions are short.
	MaxLen int

	// IgnorePhrases rejects output containing any of these substrings
	// (case-insensitive), which signal meta-commentary rather than caption
	// text.
	IgnorePhrases []string

	// Watermarks are branding substrings removed from accepted text.
	Watermarks []string
}

// Apply filters raw recognizer output. It returns the cleaned caption text,
// or an empty string when the output is rejected. Apply is pure and
// idempotent on its own accepted output.
func (f *Filter) Apply(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	for _, phrase := range f.IgnorePhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return ""
		}
	}

	if f.MaxLen > 0 && utf8.RuneCountInString(text) > f.MaxLen {
		return ""
	}

	text = strings.TrimSpace(strings.Trim(text, `"'“”‘’`))
	text = StripWatermarks(text, f.Watermarks)

	if utf8.RuneCountInString(text) <= 1 {
		return ""
	}
	return text
}

// StripWatermarks removes every watermark substring and trims the result.
func StripWatermarks(text string, watermarks []string) string {
	for _, wm := range watermarks {
		if wm == "" {
			continue
		}
		text = strings.ReplaceAll(text, wm, "")
	}
	return strings.TrimSpace(text)
}

// sentenceEnders terminate a caption sentence for the OCR-only output path.
var sentenceEnders = map[rune]struct{}{
	'。': {}, '？': {}, '！': {},
	'.': {}, '?': {}, '!': {},
}

// SplitSentences breaks a multi-sentence caption at terminal punctuation,
// keeping the punctuation with its sentence. Single-sentence input comes
// back as a one-element slice.
func SplitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if _, ok := sentenceEnders[r]; ok {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
