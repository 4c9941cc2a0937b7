package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatLine renders one subtitle entry in the stable output form
// "[Ns] text", with the timestamp truncated to whole seconds.
func FormatLine(timestamp float64, text string) string {
	return fmt.Sprintf("[%ds] %s", int(timestamp), text)
}

// Format renders merged cues as one "[Ns] text" line each, joined by
// newlines, preserving order.
func Format(cues []MergedCue) string {
	lines := make([]string, len(cues))
	for i, c := range cues {
		lines[i] = FormatLine(c.Timestamp, c.Text)
	}
	return strings.Join(lines, "\n")
}

// FormatCues renders plain cues the same way.
func FormatCues(cues []Cue) string {
	lines := make([]string, len(cues))
	for i, c := range cues {
		lines[i] = FormatLine(c.Timestamp, c.Text)
	}
	return strings.Join(lines, "\n")
}

// ParseCues reconstructs cues from "[Ns] text" lines. Malformed lines are
// skipped silently; a bad line must never abort the merge.
func ParseCues(s string) []Cue {
	var cues []Cue
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		end := strings.Index(line, "s]")
		if end < 0 {
			continue
		}
		ts, err := strconv.ParseFloat(line[1:end], 64)
		if err != nil || ts < 0 {
			continue
		}
		text := strings.TrimSpace(line[end+2:])
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Timestamp: ts, Text: text})
	}
	return cues
}
