package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/tiklens/internal/domain"
)

var (
	sectionRe    = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	subsectionRe = regexp.MustCompile(`^([a-z])\.\s+(.+)$`)
	bulletRe     = regexp.MustCompile(`^[•\-*]\s+(.+)$`)

	emphasisRe = regexp.MustCompile(`\([^()\n]*\)`)
	numericRe  = regexp.MustCompile(`\d+(?:[.,]\d+)?%|\d+/\d+`)
)

// Format converts sanitized text into an ordered sequence of typed content
// blocks in a single left-to-right scan. Classification precedence:
// SectionHeader > SubsectionHeader > CategoryHeader > ListItem > Paragraph.
// Format never fails; anything unrecognized becomes a Paragraph.
// Parameters:
//   - sanitized: output of Sanitize.
//
// Returns:
//   - []domain.ContentBlock: blocks with strictly increasing ordinals.
func Format(sanitized string) []domain.ContentBlock {
	var blocks []domain.ContentBlock

	for _, line := range strings.Split(sanitized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, classify(line, len(blocks)))
	}

	return blocks
}

func classify(line string, ordinal int) domain.ContentBlock {
	switch {
	case sectionRe.MatchString(line):
		// Section headers keep their number prefix.
		return domain.ContentBlock{Kind: domain.BlockSectionHeader, Text: line, Ordinal: ordinal}

	case subsectionRe.MatchString(line):
		return domain.ContentBlock{Kind: domain.BlockSubsectionHeader, Text: line, Ordinal: ordinal}

	case isCategoryHeader(line):
		return domain.ContentBlock{Kind: domain.BlockCategoryHeader, Text: line, Ordinal: ordinal}

	case bulletRe.MatchString(line):
		text := bulletRe.FindStringSubmatch(line)[1]
		return domain.ContentBlock{
			Kind:    domain.BlockListItem,
			Text:    text,
			Ordinal: ordinal,
			Spans:   findSpans(text),
		}

	default:
		return domain.ContentBlock{
			Kind:    domain.BlockParagraph,
			Text:    line,
			Ordinal: ordinal,
			Spans:   findSpans(line),
		}
	}
}

// isCategoryHeader reports whether the line is an all-caps phrase, optionally
// Unicode-accented, optionally ending with a colon.
func isCategoryHeader(line string) bool {
	phrase := strings.TrimSuffix(line, ":")
	if phrase == "" {
		return false
	}

	letters := 0
	for _, r := range phrase {
		switch {
		case unicode.IsLetter(r):
			if unicode.IsLower(r) {
				return false
			}
			letters++
		case unicode.IsDigit(r) || unicode.IsSpace(r):
			// allowed
		case strings.ContainsRune("/&'-–", r):
			// allowed phrase punctuation
		default:
			return false
		}
	}
	return letters >= 2
}

// findSpans marks parenthesised ranges as emphasis spans and isolated
// percentage/ratio numerals as numeric spans. Numeric spans may fall inside
// an emphasis span; both are reported.
func findSpans(text string) []domain.Span {
	var spans []domain.Span

	for _, m := range emphasisRe.FindAllStringIndex(text, -1) {
		spans = append(spans, domain.Span{Kind: domain.SpanEmphasis, Start: m[0], End: m[1]})
	}
	for _, m := range numericRe.FindAllStringIndex(text, -1) {
		if !isolatedNumeral(text, m[0], m[1]) {
			continue
		}
		spans = append(spans, domain.Span{Kind: domain.SpanNumeric, Start: m[0], End: m[1]})
	}

	// Keep spans ordered by start for sinks that walk the text once.
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].Start < spans[j-1].Start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
	return spans
}

// isolatedNumeral checks that the match is not glued to a word or a larger
// number on either side.
func isolatedNumeral(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if r == '.' || r == ',' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
