package content

import (
	"strings"
	"testing"
)

// TestSanitize verifies each noise category is removed while real content
// survives.
func TestSanitize(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "code fences removed content kept",
			raw:  "```markdown\n1. OVERVIEW\nGood quarter.\n```",
			want: "1. OVERVIEW\nGood quarter.",
		},
		{
			name: "css rule body removed",
			raw:  "table { border: 1px solid; }\nReal sentence here.",
			want: "Real sentence here.",
		},
		{
			name: "bare style property line removed",
			raw:  "color: red;\nKeep this line.",
			want: "Keep this line.",
		},
		{
			name: "orphan punctuation lines removed",
			raw:  "}\n;\n1. OVERVIEW",
			want: "1. OVERVIEW",
		},
		{
			name: "report title removed in all case forms",
			raw:  "Phân Tích Comment TikTok\nPHÂN TÍCH COMMENT TIKTOK\nphân tích comment tiktok\nBody text.",
			want: "Body text.",
		},
		{
			name: "horizontal rules removed",
			raw:  "===\nHeading\n---",
			want: "Heading",
		},
		{
			name: "vietnamese preamble prefix stripped from line",
			raw:  "Chắc chắn rồi! 1. OVERVIEW",
			want: "1. OVERVIEW",
		},
		{
			name: "english preamble prefix stripped",
			raw:  "Sure! Here are the findings.",
			want: "Here are the findings.",
		},
		{
			name: "role introduction line dropped entirely",
			raw:  "Dưới đây là bản phân tích chi tiết.\nNội dung chính.",
			want: "Nội dung chính.",
		},
		{
			name: "blank line runs collapsed",
			raw:  "First.\n\n\n\n\nSecond.",
			want: "First.\n\nSecond.",
		},
		{
			name: "double blank preserved",
			raw:  "First.\n\nSecond.",
			want: "First.\n\nSecond.",
		},
		{
			name: "leading whitespace trimmed per line",
			raw:  "   indented\n\tother",
			want: "indented\nother",
		},
		{
			name: "stacked preambles both stripped",
			raw:  "Sure! Chắc chắn rồi! Kết quả như sau.",
			want: "Kết quả như sau.",
		},
		{
			name: "word starting with greeting kept",
			raw:  "Surely the data holds.",
			want: "Surely the data holds.",
		},
		{
			name: "greeting glued to next word kept",
			raw:  "Chắc chắn rồinh không phải lời chào.",
			want: "Chắc chắn rồinh không phải lời chào.",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.raw)
			if got != tc.want {
				t.Errorf("Sanitize mismatch:\ngot:  %q\nwant: %q", got, tc.want)
			}
		})
	}
}

// TestSanitizeIdempotent verifies re-running the pipeline changes nothing, so
// cached content can be re-sanitized safely.
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Chắc chắn rồi! 1. OVERVIEW\nSố liệu tốt (42%)\n• Điểm A\n• Điểm B",
		"```css\nbody { margin: 0; }\n```\nPhân Tích Comment TikTok\nNội dung.",
		"Sure! Here is the analysis of the quarter.\n\n\n\nDone.",
		"Plain text with no noise at all.",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}

// TestSanitizeFullScenario runs a realistic raw response end to end.
func TestSanitizeFullScenario(t *testing.T) {
	raw := "Chắc chắn rồi! Dưới đây là bản phân tích chi tiết.\n" +
		"# Phân Tích Comment TikTok\n" +
		"===\n" +
		"```css\n" +
		"table { border: 1px solid; }\n" +
		"```\n" +
		"1. TỔNG QUAN\n" +
		"Cảm xúc tích cực chiếm đa số (68%).\n"

	got := Sanitize(raw)

	if strings.Contains(got, "Chắc chắn rồi") {
		t.Errorf("preamble survived: %q", got)
	}
	if strings.Contains(got, "Phân Tích Comment TikTok") {
		t.Errorf("report title survived: %q", got)
	}
	if strings.Contains(got, "```") || strings.Contains(got, "{") {
		t.Errorf("markup noise survived: %q", got)
	}
	if !strings.Contains(got, "1. TỔNG QUAN") {
		t.Errorf("section heading lost: %q", got)
	}
	if !strings.Contains(got, "(68%)") {
		t.Errorf("body content lost: %q", got)
	}
}
