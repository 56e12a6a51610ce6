package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timmy/tiklens/internal/api/handler"
	"github.com/timmy/tiklens/internal/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := handler.NewJobStore(300*time.Millisecond, 100*time.Millisecond)
	router := SetupRouter(store, logger.GetDefault(), "test", nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) map[string]interface{} {
	t.Helper()
	payload, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	out["_status"] = float64(resp.StatusCode)
	return out
}

func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	out["_status"] = float64(resp.StatusCode)
	return out
}

// waitForStatus polls a status endpoint until it reports the wanted status.
func waitForStatus(t *testing.T, url, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		out := getJSON(t, url)
		if out["status"] == want {
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status %q never reached at %s", want, url)
	return nil
}

// TestFullJobLifecycle drives a collection and an analysis job through the
// simulated backend.
func TestFullJobLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Start collection.
	out := postJSON(t, srv.URL+"/collection/start", map[string]string{"subject_id": "subject-1"})
	if out["_status"] != float64(http.StatusOK) {
		t.Fatalf("collection start status: %v", out)
	}
	collectionID, _ := out["job_id"].(string)
	if collectionID == "" {
		t.Fatal("collection start returned no job_id")
	}

	// Analysis cannot start before collection completes.
	out = postJSON(t, srv.URL+"/analysis/start", map[string]string{"job_id": collectionID})
	if out["_status"] != float64(http.StatusConflict) {
		t.Errorf("early analysis start status: %v, want 409", out["_status"])
	}

	// Wait for collection to complete; stats must carry a comment count.
	done := waitForStatus(t, srv.URL+"/collection/status/"+collectionID, "completed")
	stats, _ := done["stats"].(map[string]interface{})
	if stats == nil || stats["comments"] == float64(0) {
		t.Errorf("completed collection stats: %v", done["stats"])
	}

	// Start and finish analysis.
	out = postJSON(t, srv.URL+"/analysis/start", map[string]string{"job_id": collectionID})
	analysisID, _ := out["job_id"].(string)
	if analysisID == "" {
		t.Fatalf("analysis start: %v", out)
	}

	done = waitForStatus(t, srv.URL+"/analysis/status/"+analysisID, "completed")
	result, _ := done["result"].(map[string]interface{})
	if result == nil {
		t.Fatal("completed analysis has no result")
	}
	if text, _ := result["text"].(string); text == "" {
		t.Error("completed analysis result has no text")
	}
}

// TestJobsList verifies the inventory endpoint reports started jobs with
// their computed state.
func TestJobsList(t *testing.T) {
	srv := newTestServer(t)

	out := getJSON(t, srv.URL+"/jobs")
	if jobs, _ := out["jobs"].([]interface{}); len(jobs) != 0 {
		t.Errorf("jobs before any start: %v", out["jobs"])
	}

	started := postJSON(t, srv.URL+"/collection/start", map[string]string{"subject_id": "subject-1"})
	collectionID, _ := started["job_id"].(string)

	out = getJSON(t, srv.URL+"/jobs")
	jobs, _ := out["jobs"].([]interface{})
	if len(jobs) != 1 {
		t.Fatalf("jobs after start: got %d, want 1", len(jobs))
	}
	row, _ := jobs[0].(map[string]interface{})
	if row["job_id"] != collectionID {
		t.Errorf("listed job_id: %v, want %s", row["job_id"], collectionID)
	}
	if row["kind"] != "collection" {
		t.Errorf("listed kind: %v", row["kind"])
	}
	if row["status"] == "" || row["status"] == nil {
		t.Error("listed job has no status")
	}
}

// TestCollectionCancel verifies the body-less cancel endpoint stops the
// active collection job.
func TestCollectionCancel(t *testing.T) {
	srv := newTestServer(t)

	out := postJSON(t, srv.URL+"/collection/start", map[string]string{"subject_id": "subject-1"})
	collectionID, _ := out["job_id"].(string)

	out = postJSON(t, srv.URL+"/collection/cancel", map[string]string{})
	if out["_status"] != float64(http.StatusOK) {
		t.Fatalf("cancel status: %v", out)
	}

	status := getJSON(t, srv.URL+"/collection/status/"+collectionID)
	if status["status"] != "cancelled" {
		t.Errorf("job status after cancel: %v", status["status"])
	}
}

// TestAnalysisCancelUnknownJob verifies cancelling an unknown analysis job is
// a 404.
func TestAnalysisCancelUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	out := postJSON(t, srv.URL+"/analysis/cancel", map[string]string{"job_id": "nope"})
	if out["_status"] != float64(http.StatusNotFound) {
		t.Errorf("cancel unknown job status: %v, want 404", out["_status"])
	}
}

// TestStatusUnknownJob verifies unknown job ids are 404s on both status
// endpoints.
func TestStatusUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/collection/status/nope", "/analysis/status/nope"} {
		out := getJSON(t, srv.URL+path)
		if out["_status"] != float64(http.StatusNotFound) {
			t.Errorf("GET %s status: %v, want 404", path, out["_status"])
		}
	}
}

// TestStartValidation verifies missing required fields are rejected.
func TestStartValidation(t *testing.T) {
	srv := newTestServer(t)

	out := postJSON(t, srv.URL+"/collection/start", map[string]string{})
	if out["_status"] != float64(http.StatusBadRequest) {
		t.Errorf("collection start without subject_id: %v, want 400", out["_status"])
	}
	out = postJSON(t, srv.URL+"/analysis/start", map[string]string{})
	if out["_status"] != float64(http.StatusBadRequest) {
		t.Errorf("analysis start without job_id: %v, want 400", out["_status"])
	}
}
