// Package dialog owns the presentation-facing projection of a session: which
// of the four dialog states is showing and what data it displays. The machine
// rebuilds the surface on state transitions and patches it in place on
// same-state updates, so an in-flight reveal animation is never destroyed by
// a redundant progress tick.
package dialog

import (
	"sync"

	"github.com/timmy/tiklens/internal/domain"
)

// State is the presentation state of the dialog.
type State string

const (
	StateHidden     State = "hidden"
	StateCollecting State = "collecting"
	StateAnalyzing  State = "analyzing"
	StatePresenting State = "presenting"
)

// Progress is the data payload for the Collecting and Analyzing states.
type Progress struct {
	Percent   int
	Message   string
	ItemCount int // comments collected, or comments under analysis
}

// Presenter is the surface the machine draws on. Enter* calls rebuild the
// view wholesale; Update* calls patch displayed fields only.
type Presenter interface {
	EnterCollecting(p Progress)
	UpdateCollecting(p Progress)
	EnterAnalyzing(p Progress)
	UpdateAnalyzing(p Progress)
	EnterPresenting(blocks []domain.ContentBlock)
	ShowError(msg string)
	Hide()
}

// Machine maps job lifecycle data onto the presenter. At most one machine is
// live per orchestration session; Reset prepares it for reuse.
type Machine struct {
	mu         sync.Mutex
	state      State
	presenter  Presenter
	maxPercent int
}

// NewMachine creates a dialog machine in the Hidden state.
// Parameters:
//   - presenter: presentation surface to drive; must be non-nil.
//
// Returns:
//   - *Machine: initialized machine.
func NewMachine(presenter Presenter) *Machine {
	return &Machine{
		state:     StateHidden,
		presenter: presenter,
	}
}

// State returns the current presentation state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ShowCollecting enters the Collecting state or patches it with new data.
// Displayed progress is clamped to the maximum seen within the state: the
// backend does not guarantee monotonic progress and the dialog must not
// appear to move backwards.
// Parameters:
//   - p: progress payload from the latest collection snapshot.
func (m *Machine) ShowCollecting(p Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateCollecting {
		m.state = StateCollecting
		m.maxPercent = p.Percent
		m.presenter.EnterCollecting(p)
		return
	}

	p.Percent = m.clamp(p.Percent)
	m.presenter.UpdateCollecting(p)
}

// ShowAnalyzing enters the Analyzing state or patches it with new data.
// Parameters:
//   - p: progress payload from the latest analysis snapshot.
func (m *Machine) ShowAnalyzing(p Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAnalyzing {
		m.state = StateAnalyzing
		m.maxPercent = p.Percent
		m.presenter.EnterAnalyzing(p)
		return
	}

	p.Percent = m.clamp(p.Percent)
	m.presenter.UpdateAnalyzing(p)
}

// Present enters the terminal Presenting state with the formatted block
// sequence. There is no automatic transition out of Presenting; it exits only
// via Hide or Reset.
// Parameters:
//   - blocks: formatted content blocks in reveal order.
func (m *Machine) Present(blocks []domain.ContentBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StatePresenting
	m.presenter.EnterPresenting(blocks)
}

// Fail surfaces an error message and returns the dialog to Hidden.
// Parameters:
//   - msg: human-readable failure message.
func (m *Machine) Fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.presenter.ShowError(msg)
	m.state = StateHidden
	m.maxPercent = 0
	m.presenter.Hide()
}

// Hide returns the dialog to Hidden without an error banner. Used for
// cancellation and dismissal.
func (m *Machine) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateHidden {
		return
	}
	m.state = StateHidden
	m.maxPercent = 0
	m.presenter.Hide()
}

// Reset forcibly returns the machine to Hidden before a new session starts.
func (m *Machine) Reset() {
	m.Hide()
}

// clamp holds displayed progress at the high-water mark for the current
// state. Callers must hold m.mu.
func (m *Machine) clamp(percent int) int {
	if percent > m.maxPercent {
		m.maxPercent = percent
	}
	return m.maxPercent
}
