package domain

import "fmt"

// Error taxonomy for the orchestration pipeline. Transport and protocol
// failures are folded into synthetic failed snapshots by the poller, so the
// orchestrator only ever handles JobFailedError and JobCancelledError.

// TransportError wraps a network-level failure talking to the backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a non-2xx response or a malformed body.
type ProtocolError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("protocol error during %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("protocol error during %s: HTTP %d", e.Op, e.StatusCode)
}

// JobFailedError carries the server-reported (or synthesized) failure message
// for a terminal failed job.
type JobFailedError struct {
	JobID   string
	Kind    JobKind
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s job %s failed: %s", e.Kind, e.JobID, e.Message)
}

// JobCancelledError marks a user- or caller-initiated cancellation. It is
// surfaced silently: the dialog returns to hidden with no error banner.
type JobCancelledError struct {
	JobID string
	Kind  JobKind
}

func (e *JobCancelledError) Error() string {
	return fmt.Sprintf("%s job %s cancelled", e.Kind, e.JobID)
}
