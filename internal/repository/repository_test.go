package repository

import (
	"context"
	"testing"
	"time"

	"github.com/timmy/tiklens/internal/config"
	"github.com/timmy/tiklens/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}

// TestPreferenceGetMissing verifies an unset key reads as empty without an
// error.
func TestPreferenceGetMissing(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))

	got, err := repo.Get(context.Background(), "analysis.custom_instruction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("missing key value: got %q, want empty", got)
	}
}

// TestPreferenceSetAndOverwrite verifies upsert semantics.
func TestPreferenceSetAndOverwrite(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Set(ctx, "analysis.custom_instruction", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "analysis.custom_instruction", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := repo.Get(ctx, "analysis.custom_instruction")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "second" {
		t.Errorf("value after overwrite: got %q, want second", got)
	}
}

// TestSessionLifecycle verifies create, update, and recency ordering.
func TestSessionLifecycle(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sessions := []*domain.AnalysisSession{
		{ID: "s-1", SubjectID: "subject-a", Status: domain.SessionStatusRunning, StartedAt: base},
		{ID: "s-2", SubjectID: "subject-a", Status: domain.SessionStatusRunning, StartedAt: base.Add(time.Hour)},
		{ID: "s-3", SubjectID: "subject-b", Status: domain.SessionStatusRunning, StartedAt: base.Add(2 * time.Hour)},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	// Finish one session and verify the update sticks.
	finished := base.Add(90 * time.Minute)
	sessions[1].Status = domain.SessionStatusCompleted
	sessions[1].CommentCount = 120
	sessions[1].BlockCount = 4
	sessions[1].FinishedAt = &finished
	if err := repo.Update(ctx, sessions[1]); err != nil {
		t.Fatalf("update: %v", err)
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent sessions: got %d, want 2", len(recent))
	}
	if recent[0].ID != "s-3" || recent[1].ID != "s-2" {
		t.Errorf("recency order: got %s, %s", recent[0].ID, recent[1].ID)
	}
	if recent[1].Status != domain.SessionStatusCompleted || recent[1].CommentCount != 120 {
		t.Errorf("updated session not persisted: %+v", recent[1])
	}
}

// TestListRecentDefaultLimit verifies a non-positive limit falls back to the
// default.
func TestListRecentDefaultLimit(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.AnalysisSession{
		ID: "s-1", SubjectID: "subject-a", StartedAt: time.Now(),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	recent, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("recent sessions: got %d, want 1", len(recent))
	}
}
