package domain

// BlockKind classifies one formatted content block.
type BlockKind string

const (
	BlockSectionHeader    BlockKind = "section_header"
	BlockSubsectionHeader BlockKind = "subsection_header"
	BlockCategoryHeader   BlockKind = "category_header"
	BlockListItem         BlockKind = "list_item"
	BlockParagraph        BlockKind = "paragraph"
)

// SpanKind classifies an inline presentation annotation inside a block.
type SpanKind string

const (
	SpanEmphasis SpanKind = "emphasis" // parenthesised span
	SpanNumeric  SpanKind = "numeric"  // isolated percentage or ratio numeral
)

// Span marks a [Start,End) byte range of a block's Text that a presentation
// sink may style. Spans are ordered by Start; a numeric span may sit inside
// an emphasis span.
type Span struct {
	Kind  SpanKind `json:"kind"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// ContentBlock is one typed unit of formatted analysis output. Blocks are
// immutable once produced; Ordinal defines the reveal order.
type ContentBlock struct {
	Kind    BlockKind `json:"kind"`
	Text    string    `json:"text"`
	Ordinal int       `json:"ordinal"`
	Spans   []Span    `json:"spans,omitempty"`
}
