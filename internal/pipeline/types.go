// Package pipeline holds the text processing core: noise filtering of
// recognizer output, similarity scoring, the caption/speech merge algorithm,
// and the "[Ns] text" output format.
package pipeline

// Cue is one timestamped text entry from either stream. Immutable once
// created; timestamps are seconds from the start of the video.
type Cue struct {
	Timestamp float64
	Text      string
}

// Source tags the provenance of a merged cue.
type Source string

const (
	SourceVideo Source = "video"
	SourceAudio Source = "audio"
	SourceBoth  Source = "both"
)

// MergedCue is a Cue that survived the merge, tagged with where it came from.
type MergedCue struct {
	Cue
	Source Source
}
