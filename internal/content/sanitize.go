// Package content turns raw analysis text into sanitized, typed content
// blocks. Sanitize strips model and markup noise; Format classifies the
// surviving lines. Both are pure functions and never fail: unexpected input
// degrades to plain paragraphs instead of breaking the pipeline.
package content

import (
	"regexp"
	"strings"
)

// ReportTitle is the fixed report heading some model responses repeat above
// the body. Sanitize removes it in literal, upper-cased, and lower-cased form.
const ReportTitle = "Phân Tích Comment TikTok"

// pass is one ordered text transform. Each pass is pure and idempotent so the
// whole pipeline can be re-applied to cached content (the export path does).
type pass struct {
	name  string
	apply func(string) string
}

var passes = []pass{
	{"code-fences", stripCodeFences},
	{"style-rules", stripStyleRules},
	{"orphan-lines", stripOrphanLines},
	{"report-title", stripReportTitle},
	{"preamble", stripPreamble},
	{"whitespace", normalizeWhitespace},
}

// Sanitize strips formatting noise and AI boilerplate from raw result text.
// Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
// Parameters:
//   - raw: unprocessed analysis text from the backend.
//
// Returns:
//   - string: cleaned text ready for Format.
func Sanitize(raw string) string {
	// Stripping one pattern can expose another (a preamble behind a preamble,
	// a nested style rule), so the ordered pass list runs until the text is
	// stable. Every pass only removes or normalizes, so this terminates.
	s := raw
	for {
		next := s
		for _, p := range passes {
			next = p.apply(next)
		}
		if next == s {
			return s
		}
		s = next
	}
}

var codeFenceRe = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*\r?\n?")

// stripCodeFences removes fenced code-block markers with any language tag.
// The fenced content itself is kept.
func stripCodeFences(s string) string {
	return codeFenceRe.ReplaceAllString(s, "")
}

var (
	styleRuleRe   = regexp.MustCompile(`(?s)[A-Za-z0-9 .#,:>\[\]"'=*_-]+\{[^{}]*\}`)
	stylePropRe   = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z-]+[ \t]*:[ \t]*[^;{}\n]*;[ \t]*\r?\n?`)
	emptyBracesRe = regexp.MustCompile(`[^{}\n]*\{[ \t\r\n]*\}`)
)

// stripStyleRules removes embedded style noise in three steps: full
// selector{...} rule bodies, leftover bare property:value; lines, and any
// now-empty brace pairs.
func stripStyleRules(s string) string {
	s = styleRuleRe.ReplaceAllString(s, "")
	s = stylePropRe.ReplaceAllString(s, "")
	s = emptyBracesRe.ReplaceAllString(s, "")
	return s
}

var orphanLineRe = regexp.MustCompile(`(?m)^[ \t]*[{};:.,#>*/\\-]{1,2}[ \t]*\r?\n?`)

// stripOrphanLines removes one- and two-character punctuation lines left over
// after style stripping.
func stripOrphanLines(s string) string {
	return orphanLineRe.ReplaceAllString(s, "")
}

var horizontalRuleRe = regexp.MustCompile(`(?m)^[ \t]*(={3,}|-{3,})[ \t]*\r?\n?`)

// stripReportTitle removes the fixed report title in its three case forms and
// any horizontal rule lines of repeated '=' or '-'.
func stripReportTitle(s string) string {
	for _, form := range []string{ReportTitle, strings.ToUpper(ReportTitle), strings.ToLower(ReportTitle)} {
		s = strings.ReplaceAll(s, form, "")
	}
	return horizontalRuleRe.ReplaceAllString(s, "")
}

// preambleRes matches the greeting/role-introduction boilerplate models put in
// front of the actual analysis. Prefix patterns strip the sentence and keep
// the rest of the line; line patterns drop the whole line. Each phrase must be
// followed by punctuation, whitespace, or end of line so prefixes of ordinary
// words never match.
var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?mi)^[ \t]*(?:chắc chắn rồi|tất nhiên rồi|tất nhiên|được thôi|vâng ạ)(?:[!.,:][ \t]*|[ \t]+|$)`),
	regexp.MustCompile(`(?mi)^[ \t]*(?:sure thing|sure|of course|certainly|absolutely)(?:[!.,:][ \t]*|[ \t]+|$)`),
	regexp.MustCompile(`(?mi)^.*(?:tôi là chuyên gia|với tư cách là|as an ai|here is the analysis|here's the analysis|dưới đây là bản phân tích|dưới đây là bài phân tích).*\r?\n?`),
}

// stripPreamble removes known AI-preamble sentence patterns wherever a line
// starts with them.
func stripPreamble(s string) string {
	for _, re := range preambleRes {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// normalizeWhitespace trims leading whitespace per line, collapses runs of
// three or more blank lines to exactly one, and trims the whole text.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	blanks := 0
	flushBlanks := func() {
		if blanks == 0 {
			return
		}
		if blanks >= 3 {
			out = append(out, "")
		} else {
			for i := 0; i < blanks; i++ {
				out = append(out, "")
			}
		}
		blanks = 0
	}

	for _, line := range lines {
		line = strings.TrimLeft(strings.TrimRight(line, "\r"), " \t")
		if line == "" {
			blanks++
			continue
		}
		flushBlanks()
		out = append(out, line)
	}
	flushBlanks()

	return strings.TrimSpace(strings.Join(out, "\n"))
}
