package domain

// JobKind identifies which of the two remote job types a Job refers to.
type JobKind string

const (
	JobKindCollection JobKind = "collection"
	JobKindAnalysis   JobKind = "analysis"
)

// JobStatus represents the server-reported status of a remote job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted,
// JobStatusFailed, and JobStatusCancelled.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status allows no further transitions.
// Parameters: none.
// Returns:
//   - bool: true for completed, failed, or cancelled.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// AnalysisResult is the opaque payload attached to a completed analysis job.
type AnalysisResult struct {
	Text string `json:"text"`
}

// JobSnapshot is one server-reported view of a remote job, as fetched by the
// polling scheduler. Snapshots are values; the poller never mutates one after
// delivering it to an observer.
type JobSnapshot struct {
	JobID    string          `json:"job_id"`
	Kind     JobKind         `json:"kind"`
	Status   JobStatus       `json:"status"`
	Progress int             `json:"progress"` // 0-100, not guaranteed monotonic by the backend
	Message  string          `json:"message,omitempty"`
	Stats    map[string]int  `json:"stats,omitempty"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// FailedSnapshot builds a synthetic failed snapshot for transport and protocol
// errors so the orchestrator sees a single failure channel.
// Parameters:
//   - jobID: job the failure belongs to.
//   - kind: collection or analysis.
//   - msg: human-readable failure message.
//
// Returns:
//   - JobSnapshot: terminal failed snapshot carrying msg.
func FailedSnapshot(jobID string, kind JobKind, msg string) JobSnapshot {
	return JobSnapshot{
		JobID:  jobID,
		Kind:   kind,
		Status: JobStatusFailed,
		Error:  msg,
	}
}

// CommentCount extracts the collection comment count from a stats map.
// Parameters:
//   - stats: opaque key/count mapping from a snapshot; may be nil.
//
// Returns:
//   - int: value of the "comments" key, 0 when absent.
func CommentCount(stats map[string]int) int {
	if stats == nil {
		return 0
	}
	return stats["comments"]
}
