package pipeline

import (
	"reflect"
	"testing"
)

func TestFormatLine(t *testing.T) {
	tests := []struct {
		ts   float64
		text string
		want string
	}{
		{0, "开场白", "[0s] 开场白"},
		{5.9, "hello", "[5s] hello"}, // seconds truncate, not round
		{120, "two minutes in", "[120s] two minutes in"},
	}
	for _, tt := range tests {
		if got := FormatLine(tt.ts, tt.text); got != tt.want {
			t.Errorf("FormatLine(%v, %q) = %q, want %q", tt.ts, tt.text, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	cues := []MergedCue{
		{Cue: Cue{Timestamp: 1.4, Text: "第一句"}, Source: SourceVideo},
		{Cue: Cue{Timestamp: 3, Text: "第二句"}, Source: SourceBoth},
	}
	want := "[1s] 第一句\n[3s] 第二句"
	if got := Format(cues); got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestParseCues(t *testing.T) {
	in := "[0s] 开场白\n[3.5s] mid sentence\n[10s] ending"
	want := []Cue{
		{Timestamp: 0, Text: "开场白"},
		{Timestamp: 3.5, Text: "mid sentence"},
		{Timestamp: 10, Text: "ending"},
	}
	if got := ParseCues(in); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCues = %+v, want %+v", got, want)
	}
}

func TestParseCues_SkipsMalformedLines(t *testing.T) {
	in := "no brackets at all\n" +
		"[xs] bad timestamp\n" +
		"[3] missing seconds marker\n" +
		"[-2s] negative\n" +
		"[4s]\n" + // no text
		"[7s] valid line\n" +
		"   \n"
	got := ParseCues(in)
	want := []Cue{{Timestamp: 7, Text: "valid line"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCues = %+v, want only the valid line", got)
	}
}

func TestFormatParse_RoundTrip(t *testing.T) {
	cues := []Cue{
		{Timestamp: 0, Text: "第一句"},
		{Timestamp: 12, Text: "第二句"},
	}
	got := ParseCues(FormatCues(cues))
	if !reflect.DeepEqual(got, cues) {
		t.Errorf("round trip = %+v, want %+v", got, cues)
	}
}
