package pipeline

import (
	"reflect"
	"strings"
	"testing"
)

func testFilter() *Filter {
	return &Filter{
		MaxLen:        50,
		IgnorePhrases: []string{"图片中", "字幕是", "the image shows", "i can see"},
		Watermarks:    []string{"抖音"},
	}
}

func TestFilterApply(t *testing.T) {
	f := testFilter()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain caption", "今天天气真好", "今天天气真好"},
		{"latin caption", "see you tomorrow", "see you tomorrow"},
		{"explanation phrase", "图片中没有字幕", ""},
		{"explanation phrase english", "The image shows a person walking", ""},
		{"phrase case insensitive", "I CAN SEE some text", ""},
		{"too long", strings.Repeat("字", 51), ""},
		{"exactly max length", strings.Repeat("字", 50), strings.Repeat("字", 50)},
		{"quoted", `"你好世界"`, "你好世界"},
		{"curly quotes", "“你好世界”", "你好世界"},
		{"surrounding whitespace", "  你好世界  ", "你好世界"},
		{"watermark stripped", "抖音你好世界", "你好世界"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"single rune", "好", ""},
		{"single rune after quote strip", `"好"`, ""},
	}
	for _, tt := range tests {
		if got := f.Apply(tt.raw); got != tt.want {
			t.Errorf("%s: Apply(%q) = %q, want %q", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestFilterApply_Idempotent(t *testing.T) {
	f := testFilter()
	inputs := []string{"今天天气真好", `"quoted caption"`, "抖音你好世界", "图片中没有字幕", "x"}
	for _, raw := range inputs {
		once := f.Apply(raw)
		twice := f.Apply(once)
		if once != twice {
			t.Errorf("Apply not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestStripWatermarks(t *testing.T) {
	got := StripWatermarks("  抖音hello抖音world ", []string{"抖音", ""})
	if got != "helloworld" {
		t.Errorf("StripWatermarks = %q, want %q", got, "helloworld")
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"单句无标点", []string{"单句无标点"}},
		{"第一句。第二句？第三句！", []string{"第一句。", "第二句？", "第三句！"}},
		{"One. Two? Three", []string{"One.", "Two?", "Three"}},
		{"", nil},
		// Punctuation-only fragments survive here; the length filter in the
		// final pass drops them.
		{"。。", []string{"。", "。"}},
	}
	for _, tt := range tests {
		got := SplitSentences(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSentences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
