package pipeline

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Merger fuses the caption stream and the speech stream into one
// deduplicated, time-ordered subtitle sequence.
//
// Captions recovered from frames tend to be precise per-word but
// intermittently missed; speech segments anchor content the camera never
// displayed as text. The window tolerates timing drift between the two
// samplings; the match threshold favors recall when pairing entries, while
// the dedup threshold favors precision in the final list.
type Merger struct {
	// Window is the timestamp tolerance in seconds for cross-stream
	// matching and for suppressing leftover audio near emitted entries.
	Window float64

	// MatchThreshold is the minimum similarity for pairing a caption with
	// a speech segment.
	MatchThreshold float64

	// DedupThreshold is the similarity above which a later entry is
	// dropped as a near-duplicate of an earlier kept one.
	DedupThreshold float64

	// Similarity scores text closeness; nil defaults to [SequenceRatio].
	Similarity SimilarityFunc

	// Watermarks are stripped from every entry during the final pass.
	Watermarks []string
}

func (m *Merger) similar(a, b string) float64 {
	if m.Similarity == nil {
		return SequenceRatio(a, b)
	}
	return m.Similarity(a, b)
}

// Merge fuses the two streams. Both inputs must be ordered by timestamp.
// The output is sorted ascending by timestamp, contains no two entries more
// similar than DedupThreshold, and drops entries shorter than two runes
// after watermark stripping.
func (m *Merger) Merge(video, audio []Cue) []MergedCue {
	merged := m.align(video, audio)
	return m.finalize(merged)
}

// align pairs each video entry with its best unconsumed audio candidate
// inside the window, then appends audio leftovers that overlap nothing.
func (m *Merger) align(video, audio []Cue) []MergedCue {
	buckets := make(map[int][]int, len(audio))
	for i, a := range audio {
		sec := int(a.Timestamp)
		buckets[sec] = append(buckets[sec], i)
	}
	consumed := make([]bool, len(audio))
	window := int(m.Window)

	merged := make([]MergedCue, 0, len(video)+len(audio))

	for _, v := range video {
		tv := int(v.Timestamp)
		bestScore := 0.0
		bestIdx := -1
		for sec := tv - window; sec <= tv+window; sec++ {
			for _, i := range buckets[sec] {
				if consumed[i] {
					continue
				}
				score := m.similar(v.Text, audio[i].Text)
				if score > m.MatchThreshold && score > bestScore {
					bestScore = score
					bestIdx = i
				}
			}
		}

		if bestIdx < 0 {
			merged = append(merged, MergedCue{Cue: v, Source: SourceVideo})
			continue
		}

		consumed[bestIdx] = true
		text := v.Text
		// The longer text carries more content; ties keep the caption.
		if utf8.RuneCountInString(audio[bestIdx].Text) > utf8.RuneCountInString(v.Text) {
			text = audio[bestIdx].Text
		}
		merged = append(merged, MergedCue{
			Cue:    Cue{Timestamp: v.Timestamp, Text: text},
			Source: SourceBoth,
		})
	}

	for i, a := range audio {
		if consumed[i] {
			continue
		}
		overlap := false
		for _, e := range merged {
			if math.Abs(e.Timestamp-a.Timestamp) < m.Window {
				overlap = true
				break
			}
		}
		if !overlap {
			merged = append(merged, MergedCue{Cue: a, Source: SourceAudio})
		}
	}

	return merged
}

// finalize sorts, normalizes and deduplicates the merged entries. The dedup
// is greedy and order-sensitive: each candidate is compared against every
// previously kept text, so the earliest of a near-duplicate group wins.
func (m *Merger) finalize(merged []MergedCue) []MergedCue {
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	var kept []string
	final := make([]MergedCue, 0, len(merged))

	for _, e := range merged {
		text := StripWatermarks(strings.TrimSpace(e.Text), m.Watermarks)
		if utf8.RuneCountInString(text) < 2 {
			continue
		}

		dup := false
		for _, k := range kept {
			if m.similar(text, k) > m.DedupThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		kept = append(kept, text)
		e.Text = text
		final = append(final, e)
	}

	return final
}

// Dedup runs the final normalization and dedup pass over a single caption
// stream. The OCR-only command uses it so both commands agree on what counts
// as a duplicate.
func (m *Merger) Dedup(cues []Cue) []Cue {
	wrapped := make([]MergedCue, len(cues))
	for i, c := range cues {
		wrapped[i] = MergedCue{Cue: c, Source: SourceVideo}
	}
	final := m.finalize(wrapped)
	out := make([]Cue, len(final))
	for i, e := range final {
		out[i] = e.Cue
	}
	return out
}
