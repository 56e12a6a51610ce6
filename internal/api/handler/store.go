package handler

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/tiklens/internal/domain"
)

// simulatedJob is one in-memory job whose progress advances with wall time.
type simulatedJob struct {
	ID          string
	Kind        domain.JobKind
	SubjectID   string
	Instruction string // analysis jobs only
	StartedAt   time.Time
	Duration    time.Duration
	Cancelled   bool
}

// JobStore holds simulated jobs for the development backend. Progress is a
// pure function of elapsed time, so the store never needs a background
// goroutine.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*simulatedJob

	// activeCollection is the job targeted by the body-less collection
	// cancel endpoint.
	activeCollection string

	collectionDuration time.Duration
	analysisDuration   time.Duration
}

// NewJobStore creates a job store with the given simulated job durations.
// Parameters:
//   - collectionDuration: wall time a collection job takes to complete.
//   - analysisDuration: wall time an analysis job takes to complete.
//
// Returns:
//   - *JobStore: initialized store.
func NewJobStore(collectionDuration, analysisDuration time.Duration) *JobStore {
	if collectionDuration <= 0 {
		collectionDuration = 10 * time.Second
	}
	if analysisDuration <= 0 {
		analysisDuration = 8 * time.Second
	}
	return &JobStore{
		jobs:               make(map[string]*simulatedJob),
		collectionDuration: collectionDuration,
		analysisDuration:   analysisDuration,
	}
}

// StartCollection registers a new collection job and returns its id.
func (s *JobStore) StartCollection(subjectID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &simulatedJob{
		ID:        uuid.New().String(),
		Kind:      domain.JobKindCollection,
		SubjectID: subjectID,
		StartedAt: time.Now(),
		Duration:  s.collectionDuration,
	}
	s.jobs[job.ID] = job
	s.activeCollection = job.ID
	return job.ID
}

// StartAnalysis registers a new analysis job over a collection job.
// Returns false when the collection job is unknown or not yet completed.
func (s *JobStore) StartAnalysis(collectionJobID, instruction string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.jobs[collectionJobID]
	if !ok || src.Kind != domain.JobKindCollection {
		return "", false
	}
	if src.Cancelled || time.Since(src.StartedAt) < src.Duration {
		return "", false
	}

	job := &simulatedJob{
		ID:          uuid.New().String(),
		Kind:        domain.JobKindAnalysis,
		SubjectID:   src.SubjectID,
		Instruction: instruction,
		StartedAt:   time.Now(),
		Duration:    s.analysisDuration,
	}
	s.jobs[job.ID] = job
	return job.ID, true
}

// Cancel marks a job cancelled. Returns false when the job is unknown.
func (s *JobStore) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return false
	}
	job.Cancelled = true
	return true
}

// CancelActiveCollection cancels whatever collection job started last.
// Returns false when no collection job has been started.
func (s *JobStore) CancelActiveCollection() bool {
	s.mu.Lock()
	id := s.activeCollection
	s.mu.Unlock()
	if id == "" {
		return false
	}
	return s.Cancel(id)
}

// jobState is the computed view of a simulated job at one instant.
type jobState struct {
	Kind      domain.JobKind
	Status    domain.JobStatus
	Progress  float64
	Elapsed   time.Duration
	Cancelled bool
}

// State computes the current state of a job. Returns false when unknown.
func (s *JobStore) State(jobID string) (jobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return jobState{}, false
	}
	return stateOf(job), true
}

// JobListing is one row in the job list response.
type JobListing struct {
	JobID    string  `json:"job_id"`
	Kind     string  `json:"kind"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// List returns every known job with its computed state, newest first.
func (s *JobStore) List() []JobListing {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*simulatedJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})

	out := make([]JobListing, 0, len(jobs))
	for _, job := range jobs {
		state := stateOf(job)
		out = append(out, JobListing{
			JobID:    job.ID,
			Kind:     string(job.Kind),
			Status:   string(state.Status),
			Progress: state.Progress,
		})
	}
	return out
}

// stateOf computes a job's state at the current instant. Callers hold the
// store lock.
func stateOf(job *simulatedJob) jobState {
	elapsed := time.Since(job.StartedAt)
	progress := float64(elapsed) / float64(job.Duration) * 100
	if progress > 100 {
		progress = 100
	}

	status := domain.JobStatusRunning
	switch {
	case job.Cancelled:
		status = domain.JobStatusCancelled
	case progress >= 100:
		status = domain.JobStatusCompleted
	case elapsed < 500*time.Millisecond:
		status = domain.JobStatusPending
	}

	return jobState{
		Kind:      job.Kind,
		Status:    status,
		Progress:  progress,
		Elapsed:   elapsed,
		Cancelled: job.Cancelled,
	}
}
