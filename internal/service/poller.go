// Package service contains the session-level logic of the client: the
// polling scheduler that watches one remote job and the orchestrator that
// sequences the collection and analysis jobs end to end.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/domain"
	"github.com/timmy/tiklens/internal/logger"
)

// StatusFetcher fetches one status snapshot of a remote job.
type StatusFetcher func(ctx context.Context, jobID string) (domain.JobSnapshot, error)

// CancelNotifier best-effort tells the backend a job was cancelled locally.
// Failures are logged and otherwise ignored.
type CancelNotifier func(ctx context.Context, jobID string) error

// Poller repeatedly fetches job status at a fixed interval until the job
// reaches a terminal state. Fetches never overlap: the next one is scheduled
// only after the previous one resolves.
type Poller struct {
	kind   domain.JobKind
	fetch  StatusFetcher
	notify CancelNotifier
	clock  clock.Clock
}

// NewPoller creates a polling scheduler for one job kind.
// Parameters:
//   - kind: collection or analysis; stamped onto synthetic snapshots.
//   - fetch: status fetch function; must be non-nil.
//   - notify: backend cancel notification; may be nil.
//   - clk: clock for interval pacing; nil uses the system clock.
//
// Returns:
//   - *Poller: initialized scheduler.
func NewPoller(kind domain.JobKind, fetch StatusFetcher, notify CancelNotifier, clk clock.Clock) *Poller {
	if clk == nil {
		clk = clock.System()
	}
	return &Poller{kind: kind, fetch: fetch, notify: notify, clock: clk}
}

// Polling is a handle to one running poll loop.
type Polling struct {
	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

// Cancel stops polling. Idempotent. Any pending or in-flight snapshot is
// silently discarded instead of being delivered, and the backend is notified
// fire-and-forget.
func (p *Polling) Cancel() {
	p.cancelOnce.Do(func() { close(p.cancelCh) })
}

// Done is closed once the loop has fully stopped and no further observer
// invocations can happen.
func (p *Polling) Done() <-chan struct{} {
	return p.done
}

func (p *Polling) cancelled() bool {
	select {
	case <-p.cancelCh:
		return true
	default:
		return false
	}
}

// Start begins polling the given job. Every successfully fetched snapshot is
// delivered to observe; a transport or protocol failure is delivered as one
// synthetic failed snapshot, after which polling stops without retry.
// Parameters:
//   - ctx: context for the whole loop; cancelling it behaves like Cancel.
//   - jobID: job to poll.
//   - interval: fixed spacing between fetches; no backoff.
//   - observe: snapshot callback, invoked from the polling goroutine.
//
// Returns:
//   - *Polling: cancellation handle.
func (p *Poller) Start(ctx context.Context, jobID string, interval time.Duration, observe func(domain.JobSnapshot)) *Polling {
	handle := &Polling{
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go p.run(ctx, jobID, interval, observe, handle)

	return handle
}

func (p *Poller) run(ctx context.Context, jobID string, interval time.Duration, observe func(domain.JobSnapshot), handle *Polling) {
	defer close(handle.done)

	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldJobID:   jobID,
		logger.FieldJobKind: string(p.kind),
	})

	for {
		select {
		case <-ctx.Done():
			p.notifyCancel(jobID, log)
			return
		case <-handle.cancelCh:
			p.notifyCancel(jobID, log)
			return
		case <-p.clock.After(interval):
		}

		// Re-check after waking: the select picks arbitrarily when both the
		// tick and the cancellation are ready.
		if handle.cancelled() || ctx.Err() != nil {
			p.notifyCancel(jobID, log)
			return
		}

		snap, err := p.fetch(ctx, jobID)
		if err != nil {
			snap = domain.FailedSnapshot(jobID, p.kind, err.Error())
		}

		// A cancellation that raced the in-flight fetch suppresses delivery.
		if handle.cancelled() || ctx.Err() != nil {
			p.notifyCancel(jobID, log)
			return
		}

		log.WithFields(logger.Fields{
			logger.FieldStatus:   string(snap.Status),
			logger.FieldProgress: snap.Progress,
		}).Debug("Job status polled")

		observe(snap)

		if snap.Status.IsTerminal() {
			log.WithField(logger.FieldStatus, string(snap.Status)).Debug("Polling reached terminal status")
			return
		}
	}
}

// notifyCancel tells the backend the job is no longer wanted. Best effort:
// local cancellation never waits on it.
func (p *Poller) notifyCancel(jobID string, log *logger.Logger) {
	if p.notify == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.notify(ctx, jobID); err != nil {
			log.WithError(err).Warn("Failed to notify backend of cancellation")
		}
	}()
}
