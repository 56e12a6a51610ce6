package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/domain"
)

// scriptedFetcher returns pre-programmed snapshots one per call.
type scriptedFetcher struct {
	mu     sync.Mutex
	script []fetchResult
	calls  int
}

type fetchResult struct {
	snap domain.JobSnapshot
	err  error
}

func (s *scriptedFetcher) fetch(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.script) {
		// Out-of-script calls are a test failure surfaced by call count
		// assertions; keep the loop alive with a running snapshot.
		s.calls++
		return domain.JobSnapshot{JobID: jobID, Status: domain.JobStatusRunning}, nil
	}
	r := s.script[s.calls]
	s.calls++
	return r.snap, r.err
}

func (s *scriptedFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func runningSnap(progress int) domain.JobSnapshot {
	return domain.JobSnapshot{JobID: "job-1", Kind: domain.JobKindCollection,
		Status: domain.JobStatusRunning, Progress: progress}
}

func completedSnap() domain.JobSnapshot {
	return domain.JobSnapshot{JobID: "job-1", Kind: domain.JobKindCollection,
		Status: domain.JobStatusCompleted, Progress: 100}
}

// TestPollerDeliversUntilTerminal verifies one fetch per tick, delivery of
// every snapshot, and a clean stop at the first terminal status.
func TestPollerDeliversUntilTerminal(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchResult{
		{snap: runningSnap(10)},
		{snap: runningSnap(55)},
		{snap: completedSnap()},
	}}
	fake := clock.NewFake()
	poller := NewPoller(domain.JobKindCollection, fetcher.fetch, nil, fake)

	var observed []domain.JobSnapshot
	handle := poller.Start(context.Background(), "job-1", 2*time.Second, func(s domain.JobSnapshot) {
		observed = append(observed, s)
	})

	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}

	if got := fetcher.callCount(); got != 3 {
		t.Errorf("fetch calls: got %d, want 3", got)
	}
	if len(observed) != 3 {
		t.Fatalf("observed snapshots: got %d, want 3", len(observed))
	}
	if observed[2].Status != domain.JobStatusCompleted {
		t.Errorf("final status: got %s", observed[2].Status)
	}

	// Each fetch was preceded by exactly one interval wait.
	for i, d := range fake.Delays() {
		if d != 2*time.Second {
			t.Errorf("delay %d: got %v, want 2s", i, d)
		}
	}
	if len(fake.Delays()) != 3 {
		t.Errorf("interval waits: got %d, want 3", len(fake.Delays()))
	}
}

// TestPollerSynthesizesFailureSnapshot verifies a fetch error is delivered as
// one failed snapshot and stops the loop.
func TestPollerSynthesizesFailureSnapshot(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchResult{
		{snap: runningSnap(10)},
		{err: errors.New("connection refused")},
	}}
	poller := NewPoller(domain.JobKindCollection, fetcher.fetch, nil, clock.NewFake())

	var observed []domain.JobSnapshot
	handle := poller.Start(context.Background(), "job-1", time.Second, func(s domain.JobSnapshot) {
		observed = append(observed, s)
	})
	<-handle.Done()

	if len(observed) != 2 {
		t.Fatalf("observed snapshots: got %d, want 2", len(observed))
	}
	last := observed[1]
	if last.Status != domain.JobStatusFailed {
		t.Errorf("synthetic status: got %s, want failed", last.Status)
	}
	if last.Kind != domain.JobKindCollection || last.JobID != "job-1" {
		t.Errorf("synthetic snapshot identity: %+v", last)
	}
	if last.Error == "" {
		t.Error("synthetic snapshot missing error text")
	}
	if got := fetcher.callCount(); got != 2 {
		t.Errorf("fetch calls after failure: got %d, want 2", got)
	}
}

// TestPollerCancelSuppressesInFlightSnapshot verifies a snapshot racing a
// cancellation is never delivered.
func TestPollerCancelSuppressesInFlightSnapshot(t *testing.T) {
	fetchEntered := make(chan struct{})
	releaseFetch := make(chan struct{})

	fetch := func(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
		close(fetchEntered)
		<-releaseFetch
		return runningSnap(40), nil
	}
	poller := NewPoller(domain.JobKindCollection, fetch, nil, clock.NewFake())

	observations := 0
	handle := poller.Start(context.Background(), "job-1", time.Second, func(domain.JobSnapshot) {
		observations++
	})

	<-fetchEntered
	handle.Cancel()
	close(releaseFetch)

	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled poll loop did not stop")
	}

	if observations != 0 {
		t.Errorf("observer calls after cancel: got %d, want 0", observations)
	}
}

// TestPollerCancelNotifiesBackend verifies cancellation fires the backend
// notifier exactly once with the job id.
func TestPollerCancelNotifiesBackend(t *testing.T) {
	notified := make(chan string, 1)
	notify := func(ctx context.Context, jobID string) error {
		notified <- jobID
		return nil
	}

	block := make(chan struct{})
	fetch := func(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
		<-block
		return runningSnap(10), nil
	}
	poller := NewPoller(domain.JobKindAnalysis, fetch, notify, clock.NewFake())

	handle := poller.Start(context.Background(), "job-9", time.Second, func(domain.JobSnapshot) {})
	handle.Cancel()
	close(block)
	<-handle.Done()

	select {
	case jobID := <-notified:
		if jobID != "job-9" {
			t.Errorf("notified job id: got %s, want job-9", jobID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("backend was never notified of cancellation")
	}
}

// TestPollerCancelIsIdempotent verifies repeated Cancel calls are safe.
func TestPollerCancelIsIdempotent(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchResult{{snap: completedSnap()}}}
	poller := NewPoller(domain.JobKindCollection, fetcher.fetch, nil, clock.NewFake())

	handle := poller.Start(context.Background(), "job-1", time.Second, func(domain.JobSnapshot) {})
	<-handle.Done()

	handle.Cancel()
	handle.Cancel()
}

// TestPollerContextCancellation verifies cancelling the context stops the
// loop like a local cancel.
func TestPollerContextCancellation(t *testing.T) {
	fetchEntered := make(chan struct{})
	releaseFetch := make(chan struct{})
	fetch := func(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
		select {
		case <-fetchEntered:
		default:
			close(fetchEntered)
		}
		<-releaseFetch
		return runningSnap(10), nil
	}
	poller := NewPoller(domain.JobKindCollection, fetch, nil, clock.NewFake())

	ctx, cancel := context.WithCancel(context.Background())
	observations := 0
	handle := poller.Start(ctx, "job-1", time.Second, func(domain.JobSnapshot) {
		observations++
	})

	<-fetchEntered
	cancel()
	close(releaseFetch)

	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop on context cancellation")
	}
	if observations != 0 {
		t.Errorf("observer calls after context cancel: got %d, want 0", observations)
	}
}
