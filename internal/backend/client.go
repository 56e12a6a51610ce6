// Package backend is the HTTP client for the remote collection/analysis job
// API. It speaks plain JSON over resty; all failures are reported through the
// domain error taxonomy so callers never inspect HTTP details.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/tiklens/internal/domain"
)

// Client calls the remote job backend.
type Client struct {
	http    *resty.Client
	baseURL string
}

// Config holds configuration for the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new backend API client.
// Parameters:
//   - cfg: backend configuration including base URL and request timeout.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	// Set timeout to prevent hanging requests
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	return &Client{
		http:    client,
		baseURL: cfg.BaseURL,
	}
}

type startCollectionRequest struct {
	SubjectID  string `json:"subject_id"`
	SubjectURL string `json:"subject_url,omitempty"`
}

type startAnalysisRequest struct {
	JobID             string `json:"job_id"`
	CustomInstruction string `json:"custom_instruction,omitempty"`
}

type startResponse struct {
	JobID string `json:"job_id"`
}

type cancelAnalysisRequest struct {
	JobID string `json:"job_id"`
}

// statusResponse covers both status endpoints; the result field is only ever
// present on completed analysis jobs. Progress arrives as a float from the
// backend and is truncated to the 0-100 integer the client works with.
type statusResponse struct {
	Status   string                 `json:"status"`
	Progress float64                `json:"progress"`
	Message  string                 `json:"message,omitempty"`
	Stats    map[string]int         `json:"stats,omitempty"`
	Result   *domain.AnalysisResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// StartCollection starts a data-collection job for the given subject.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - subjectID: backend identifier of the subject to collect.
//   - subjectURL: optional canonical URL of the subject.
//
// Returns:
//   - string: backend-assigned job id.
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) StartCollection(ctx context.Context, subjectID, subjectURL string) (string, error) {
	var out startResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(startCollectionRequest{SubjectID: subjectID, SubjectURL: subjectURL}).
		SetResult(&out).
		Post(c.baseURL + "/collection/start")
	if err != nil {
		return "", &domain.TransportError{Op: "collection start", Err: err}
	}
	if err := checkResponse("collection start", resp); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", &domain.ProtocolError{Op: "collection start", StatusCode: resp.StatusCode(), Body: "missing job_id"}
	}
	return out.JobID, nil
}

// CollectionStatus fetches one status snapshot of a collection job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: collection job to query.
//
// Returns:
//   - domain.JobSnapshot: current server-reported state.
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) CollectionStatus(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	return c.status(ctx, jobID, domain.JobKindCollection, c.baseURL+"/collection/status/"+jobID)
}

// CancelCollection asks the backend to cancel any running collection work.
// Fire-and-forget: callers may ignore the error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) CancelCollection(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{}).
		Post(c.baseURL + "/collection/cancel")
	if err != nil {
		return &domain.TransportError{Op: "collection cancel", Err: err}
	}
	return checkResponse("collection cancel", resp)
}

// StartAnalysis starts an AI-analysis job over a completed collection job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - collectionJobID: identifier of the completed collection job.
//   - customInstruction: optional caller-supplied analysis instruction.
//
// Returns:
//   - string: backend-assigned analysis job id.
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) StartAnalysis(ctx context.Context, collectionJobID, customInstruction string) (string, error) {
	var out startResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(startAnalysisRequest{JobID: collectionJobID, CustomInstruction: customInstruction}).
		SetResult(&out).
		Post(c.baseURL + "/analysis/start")
	if err != nil {
		return "", &domain.TransportError{Op: "analysis start", Err: err}
	}
	if err := checkResponse("analysis start", resp); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", &domain.ProtocolError{Op: "analysis start", StatusCode: resp.StatusCode(), Body: "missing job_id"}
	}
	return out.JobID, nil
}

// AnalysisStatus fetches one status snapshot of an analysis job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: analysis job to query.
//
// Returns:
//   - domain.JobSnapshot: current server-reported state.
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) AnalysisStatus(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	return c.status(ctx, jobID, domain.JobKindAnalysis, c.baseURL+"/analysis/status/"+jobID)
}

// CancelAnalysis asks the backend to cancel the given analysis job.
// Fire-and-forget: callers may ignore the error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: analysis job to cancel.
//
// Returns:
//   - error: *domain.TransportError or *domain.ProtocolError on failure.
func (c *Client) CancelAnalysis(ctx context.Context, jobID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cancelAnalysisRequest{JobID: jobID}).
		Post(c.baseURL + "/analysis/cancel")
	if err != nil {
		return &domain.TransportError{Op: "analysis cancel", Err: err}
	}
	return checkResponse("analysis cancel", resp)
}

func (c *Client) status(ctx context.Context, jobID string, kind domain.JobKind, url string) (domain.JobSnapshot, error) {
	op := string(kind) + " status"

	var out statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(url)
	if err != nil {
		// resty surfaces unmarshal failures as errors with a live response;
		// a malformed body is a protocol problem, not a transport one.
		if resp != nil && resp.StatusCode() != 0 {
			return domain.JobSnapshot{}, &domain.ProtocolError{Op: op, StatusCode: resp.StatusCode(), Body: "malformed response body"}
		}
		return domain.JobSnapshot{}, &domain.TransportError{Op: op, Err: err}
	}
	if err := checkResponse(op, resp); err != nil {
		return domain.JobSnapshot{}, err
	}
	if out.Status == "" {
		return domain.JobSnapshot{}, &domain.ProtocolError{Op: op, StatusCode: resp.StatusCode(), Body: "missing status"}
	}

	progress := int(out.Progress)
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return domain.JobSnapshot{
		JobID:    jobID,
		Kind:     kind,
		Status:   domain.JobStatus(out.Status),
		Progress: progress,
		Message:  out.Message,
		Stats:    out.Stats,
		Result:   out.Result,
		Error:    out.Error,
	}, nil
}

// checkResponse converts a non-2xx response into a ProtocolError carrying a
// body excerpt for debugging.
func checkResponse(op string, resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	body := string(resp.Body())
	if len(body) > 256 {
		body = body[:256]
	}
	return &domain.ProtocolError{Op: op, StatusCode: code, Body: body}
}

// String implements fmt.Stringer for log output.
func (c *Client) String() string {
	return fmt.Sprintf("backend(%s)", c.baseURL)
}
