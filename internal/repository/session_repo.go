package repository

import (
	"context"
	"fmt"

	"github.com/timmy/tiklens/internal/domain"
	"gorm.io/gorm"
)

// SessionRepository records orchestration sessions for history.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a session repository.
// Parameters:
//   - db: initialized gorm handle.
//
// Returns:
//   - *SessionRepository: repository instance.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - session: session to insert; ID must be set.
//
// Returns:
//   - error: non-nil on database failure.
func (r *SessionRepository) Create(ctx context.Context, session *domain.AnalysisSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}
	return nil
}

// Update persists the current state of an existing session record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - session: session to save.
//
// Returns:
//   - error: non-nil on database failure.
func (r *SessionRepository) Update(ctx context.Context, session *domain.AnalysisSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to update session record: %w", err)
	}
	return nil
}

// ListRecent returns the most recent sessions, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of rows; non-positive defaults to 20.
//
// Returns:
//   - []domain.AnalysisSession: session records.
//   - error: non-nil on database failure.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessions []domain.AnalysisSession
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
