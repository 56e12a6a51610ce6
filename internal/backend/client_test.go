package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/timmy/tiklens/internal/domain"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&Config{BaseURL: srv.URL})
	return client, srv
}

// TestStartCollection verifies the request shape and job id extraction.
func TestStartCollection(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collection/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "col-42"})
	}))
	defer srv.Close()

	jobID, err := client.StartCollection(context.Background(), "subject-1", "https://example.com/v")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "col-42" {
		t.Errorf("job id: got %q, want col-42", jobID)
	}
	if gotBody["subject_id"] != "subject-1" || gotBody["subject_url"] != "https://example.com/v" {
		t.Errorf("request body: %v", gotBody)
	}
}

// TestCollectionStatusDecodesSnapshot verifies status, float progress
// truncation, and stats mapping.
func TestCollectionStatusDecodesSnapshot(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collection/status/col-42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "running",
			"progress": 73.6,
			"message":  "Collecting replies",
			"stats":    map[string]int{"comments": 812, "replies": 95},
		})
	}))
	defer srv.Close()

	snap, err := client.CollectionStatus(context.Background(), "col-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != domain.JobStatusRunning {
		t.Errorf("status: got %s", snap.Status)
	}
	if snap.Progress != 73 {
		t.Errorf("progress: got %d, want truncated 73", snap.Progress)
	}
	if snap.Kind != domain.JobKindCollection || snap.JobID != "col-42" {
		t.Errorf("snapshot identity: %+v", snap)
	}
	if domain.CommentCount(snap.Stats) != 812 {
		t.Errorf("comment count: got %d", domain.CommentCount(snap.Stats))
	}
}

// TestStatusProgressClamped verifies out-of-range progress values are clamped
// to 0-100.
func TestStatusProgressClamped(t *testing.T) {
	testCases := []struct {
		name     string
		progress float64
		want     int
	}{
		{name: "above range", progress: 140.0, want: 100},
		{name: "below range", progress: -3.0, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"status":   "running",
					"progress": tc.progress,
				})
			}))
			defer srv.Close()

			snap, err := client.CollectionStatus(context.Background(), "col-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.Progress != tc.want {
				t.Errorf("progress: got %d, want %d", snap.Progress, tc.want)
			}
		})
	}
}

// TestStatusNon2xxIsProtocolError verifies HTTP failures map to ProtocolError
// with the status code and a body excerpt.
func TestStatusNon2xxIsProtocolError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := client.AnalysisStatus(context.Background(), "missing")
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error type: got %T (%v), want ProtocolError", err, err)
	}
	if protoErr.StatusCode != http.StatusNotFound {
		t.Errorf("status code: got %d, want 404", protoErr.StatusCode)
	}
}

// TestStatusConnectionFailureIsTransportError verifies an unreachable server
// maps to TransportError.
func TestStatusConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(&Config{BaseURL: srv.URL})
	srv.Close() // refuse all future connections

	_, err := client.CollectionStatus(context.Background(), "col-1")
	var transportErr *domain.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error type: got %T (%v), want TransportError", err, err)
	}
}

// TestStatusMissingStatusField verifies a 200 with no status field is a
// protocol error, not a zero-value snapshot.
func TestStatusMissingStatusField(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"progress": 10})
	}))
	defer srv.Close()

	_, err := client.CollectionStatus(context.Background(), "col-1")
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error type: got %T (%v), want ProtocolError", err, err)
	}
}

// TestAnalysisStatusCarriesResult verifies the completed-analysis result
// payload survives decoding.
func TestAnalysisStatusCarriesResult(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "completed",
			"progress": 100,
			"result":   map[string]string{"text": "1. OVERVIEW\nFindings."},
		})
	}))
	defer srv.Close()

	snap, err := client.AnalysisStatus(context.Background(), "ana-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Result == nil || snap.Result.Text != "1. OVERVIEW\nFindings." {
		t.Errorf("result: %+v", snap.Result)
	}
}

// TestCancelEndpointShapes verifies the two cancel endpoints send the right
// bodies.
func TestCancelEndpointShapes(t *testing.T) {
	var collectionBody, analysisBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/cancel":
			_ = json.NewDecoder(r.Body).Decode(&collectionBody)
		case "/analysis/cancel":
			_ = json.NewDecoder(r.Body).Decode(&analysisBody)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
	}))
	defer srv.Close()

	if err := client.CancelCollection(context.Background()); err != nil {
		t.Fatalf("collection cancel: %v", err)
	}
	if len(collectionBody) != 0 {
		t.Errorf("collection cancel body: got %v, want empty object", collectionBody)
	}

	if err := client.CancelAnalysis(context.Background(), "ana-9"); err != nil {
		t.Fatalf("analysis cancel: %v", err)
	}
	if analysisBody["job_id"] != "ana-9" {
		t.Errorf("analysis cancel body: got %v", analysisBody)
	}
}

// TestStartAnalysisMissingJobID verifies an empty job_id in a 200 response is
// rejected.
func TestStartAnalysisMissingJobID(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := client.StartAnalysis(context.Background(), "col-1", "")
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error type: got %T (%v), want ProtocolError", err, err)
	}
}
