// Package render draws the analysis dialog onto a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/timmy/tiklens/internal/dialog"
	"github.com/timmy/tiklens/internal/domain"
	"github.com/timmy/tiklens/internal/stream"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")

	phaseStyle      = lipgloss.NewStyle().Foreground(purple).Bold(true)
	progressStyle   = lipgloss.NewStyle().Foreground(dim)
	errorStyle      = lipgloss.NewStyle().Foreground(red).Bold(true)
	doneStyle       = lipgloss.NewStyle().Foreground(green)
	sectionStyle    = lipgloss.NewStyle().Foreground(purple).Bold(true)
	subsectionStyle = lipgloss.NewStyle().Foreground(purple)
	categoryStyle   = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	bulletStyle     = lipgloss.NewStyle().Foreground(dim)
)

// Terminal implements dialog.Presenter and consumes reveal events, writing
// the whole session to a single writer. Safe for the presenter and sink to
// be driven from different goroutines.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	// styled decorates revealed text; false keeps plain output for pipes.
	styled bool
}

// NewTerminal creates a terminal renderer writing to out.
// Parameters:
//   - out: destination writer; nil selects os.Stdout.
//   - styled: whether to apply colors and emphasis.
//
// Returns:
//   - *Terminal: initialized renderer.
func NewTerminal(out io.Writer, styled bool) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out, styled: styled}
}

// EnterCollecting draws a fresh collection progress line.
func (t *Terminal) EnterCollecting(p dialog.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.style(phaseStyle, "Collecting comments"))
	t.progressLine(p, "comments")
}

// UpdateCollecting refreshes the collection progress line in place.
func (t *Terminal) UpdateCollecting(p dialog.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, "\r\033[K")
	t.progressLine(p, "comments")
}

// EnterAnalyzing draws a fresh analysis progress line.
func (t *Terminal) EnterAnalyzing(p dialog.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.style(phaseStyle, "Analyzing"))
	t.progressLine(p, "comments in scope")
}

// UpdateAnalyzing refreshes the analysis progress line in place.
func (t *Terminal) UpdateAnalyzing(p dialog.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, "\r\033[K")
	t.progressLine(p, "comments in scope")
}

// EnterPresenting ends the progress section. The blocks themselves arrive
// through the reveal sink, so only a separator is drawn here.
func (t *Terminal) EnterPresenting(blocks []domain.ContentBlock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out)
}

// ShowError prints the failure message.
func (t *Terminal) ShowError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.style(errorStyle, "Error: "+msg))
}

// Hide ends the dialog output.
func (t *Terminal) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
}

// Sink returns a stream.Sink that types blocks onto the terminal.
// Parameters: none.
// Returns:
//   - stream.Sink: event consumer bound to this renderer.
func (t *Terminal) Sink() stream.Sink {
	return func(ev stream.Event) {
		t.mu.Lock()
		defer t.mu.Unlock()

		switch ev.Kind {
		case stream.EventBlockStart:
			fmt.Fprint(t.out, t.blockPrefix(ev.Block))
		case stream.EventChar:
			fmt.Fprint(t.out, t.styleChar(ev.Block, string(ev.Char)))
		case stream.EventBlockEnd:
			fmt.Fprintln(t.out)
		case stream.EventDone:
			fmt.Fprintln(t.out)
			fmt.Fprintln(t.out, t.style(doneStyle, "Analysis complete."))
		case stream.EventCancelled:
			fmt.Fprintln(t.out)
		}
	}
}

// progressLine writes "[ 42%] message (128 comments)". Callers hold the lock.
func (t *Terminal) progressLine(p dialog.Progress, unit string) {
	line := fmt.Sprintf("[%3d%%] %s", p.Percent, p.Message)
	if p.ItemCount > 0 {
		line += fmt.Sprintf(" (%d %s)", p.ItemCount, unit)
	}
	fmt.Fprint(t.out, t.style(progressStyle, line))
}

// blockPrefix returns indentation and glyphs that the reveal stream does not
// carry in the block text.
func (t *Terminal) blockPrefix(block *domain.ContentBlock) string {
	if block == nil {
		return ""
	}
	switch block.Kind {
	case domain.BlockListItem:
		return t.style(bulletStyle, "  • ")
	case domain.BlockSubsectionHeader:
		return "  "
	default:
		return ""
	}
}

// styleChar applies the block kind's color to one revealed character.
func (t *Terminal) styleChar(block *domain.ContentBlock, s string) string {
	if block == nil {
		return s
	}
	switch block.Kind {
	case domain.BlockSectionHeader:
		return t.style(sectionStyle, s)
	case domain.BlockSubsectionHeader:
		return t.style(subsectionStyle, s)
	case domain.BlockCategoryHeader:
		return t.style(categoryStyle, s)
	default:
		return s
	}
}

func (t *Terminal) style(st lipgloss.Style, s string) string {
	if !t.styled {
		return s
	}
	return st.Render(s)
}
