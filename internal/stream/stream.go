// Package stream progressively reveals formatted content blocks as a lazy,
// cancellable sequence of reveal events. The player never touches a
// presentation surface itself; a thin sink adapter does the drawing, which
// keeps the pacing logic replayable under a virtual clock.
package stream

import (
	"sync"
	"time"

	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/domain"
)

// EventKind classifies one reveal event.
type EventKind int

const (
	// EventBlockStart announces a freshly created presentation unit for the
	// block; no characters have been revealed yet.
	EventBlockStart EventKind = iota
	// EventChar reveals exactly one character of the current block.
	EventChar
	// EventBlockEnd closes the current block before the inter-block pause.
	EventBlockEnd
	// EventDone marks uncancelled completion. Terminal and non-repeatable.
	EventDone
	// EventCancelled tells the sink to drop any transient cursor indicator.
	// Already-revealed content stays intact.
	EventCancelled
)

// Event is one unit of progressive-disclosure output.
type Event struct {
	Kind  EventKind
	Block *domain.ContentBlock // set for BlockStart, Char, and BlockEnd
	Char  rune                 // set for Char
}

// Sink consumes reveal events. Calls arrive from a single goroutine, in
// order, never after EventDone or EventCancelled.
type Sink func(Event)

// Pacing holds the per-character-class delays. The values are a UX knob, but
// for a given input and pacing the emitted delay sequence is deterministic.
type Pacing struct {
	Base       time.Duration
	Space      time.Duration
	Comma      time.Duration
	Sentence   time.Duration
	BlockPause time.Duration
}

// DefaultPacing returns the stock typewriter feel.
// Parameters: none.
// Returns:
//   - Pacing: default delays.
func DefaultPacing() Pacing {
	return Pacing{
		Base:       24 * time.Millisecond,
		Space:      8 * time.Millisecond,
		Comma:      90 * time.Millisecond,
		Sentence:   260 * time.Millisecond,
		BlockPause: 350 * time.Millisecond,
	}
}

// delay picks the pause that follows a revealed character.
func (p Pacing) delay(r rune) time.Duration {
	switch r {
	case ' ', '\t':
		return p.Space
	case ',', ';':
		return p.Comma
	case '.', '!', '?', ':', '…':
		return p.Sentence
	default:
		return p.Base
	}
}

// Player reveals block sequences against an injected clock.
type Player struct {
	clock  clock.Clock
	pacing Pacing
}

// NewPlayer creates a stream player.
// Parameters:
//   - clk: clock used for all pacing; nil uses the system clock.
//   - pacing: per-character delays; zero-value fields fall back to defaults.
//
// Returns:
//   - *Player: initialized player.
func NewPlayer(clk clock.Clock, pacing Pacing) *Player {
	if clk == nil {
		clk = clock.System()
	}
	def := DefaultPacing()
	if pacing.Base <= 0 {
		pacing.Base = def.Base
	}
	if pacing.Space <= 0 {
		pacing.Space = def.Space
	}
	if pacing.Comma <= 0 {
		pacing.Comma = def.Comma
	}
	if pacing.Sentence <= 0 {
		pacing.Sentence = def.Sentence
	}
	if pacing.BlockPause <= 0 {
		pacing.BlockPause = def.BlockPause
	}
	return &Player{clock: clk, pacing: pacing}
}

// Playback is a handle to one running reveal. Cancel is idempotent and safe
// to call after completion.
type Playback struct {
	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

// Cancel stops the reveal mid-character. No events follow the EventCancelled
// delivered to the sink.
func (pb *Playback) Cancel() {
	pb.cancelOnce.Do(func() { close(pb.cancelCh) })
}

// Done is closed when playback ends, whether completed or cancelled.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

// Play reveals blocks in ordinal order, one character at a time, pausing
// between blocks. A completed playback cannot be resumed; call Play again to
// restart from the beginning.
// Parameters:
//   - blocks: content blocks in reveal order.
//   - sink: event consumer; must be non-nil.
//
// Returns:
//   - *Playback: handle for cancellation and completion.
func (p *Player) Play(blocks []domain.ContentBlock, sink Sink) *Playback {
	pb := &Playback{
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go p.run(blocks, sink, pb)

	return pb
}

func (p *Player) run(blocks []domain.ContentBlock, sink Sink, pb *Playback) {
	defer close(pb.done)

	cancelled := func() bool {
		select {
		case <-pb.cancelCh:
			sink(Event{Kind: EventCancelled})
			return true
		default:
			return false
		}
	}

	for i := range blocks {
		block := &blocks[i]

		if cancelled() {
			return
		}
		sink(Event{Kind: EventBlockStart, Block: block})

		for _, r := range block.Text {
			// Cancellation is checked before every resumption so a cancelled
			// playback never reveals another character.
			select {
			case <-pb.cancelCh:
				sink(Event{Kind: EventCancelled})
				return
			case <-p.clock.After(p.pacing.delay(r)):
			}
			// The select picks arbitrarily when both channels are ready, so
			// re-check after waking.
			if cancelled() {
				return
			}
			sink(Event{Kind: EventChar, Block: block, Char: r})
		}

		if cancelled() {
			return
		}
		sink(Event{Kind: EventBlockEnd, Block: block})

		if i < len(blocks)-1 {
			select {
			case <-pb.cancelCh:
				sink(Event{Kind: EventCancelled})
				return
			case <-p.clock.After(p.pacing.BlockPause):
			}
		}
	}

	sink(Event{Kind: EventDone})
}
