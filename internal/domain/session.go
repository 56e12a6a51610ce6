package domain

import "time"

// SessionStatus tracks the lifecycle of one orchestration run.
type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// AnalysisSession records one collection+analysis run and its outcome.
type AnalysisSession struct {
	ID              string        `gorm:"type:text;primaryKey" json:"id"`
	SubjectID       string        `gorm:"type:text;not null;index" json:"subject_id"`
	SubjectURL      string        `json:"subject_url,omitempty"`
	CollectionJobID string        `gorm:"type:text;index" json:"collection_job_id,omitempty"`
	AnalysisJobID   string        `gorm:"type:text;index" json:"analysis_job_id,omitempty"`
	Status          SessionStatus `gorm:"default:running" json:"status"`
	CommentCount    int           `gorm:"default:0" json:"comment_count"`
	BlockCount      int           `gorm:"default:0" json:"block_count"`
	ReportURL       string        `json:"report_url,omitempty"`
	ErrorLog        string        `json:"error_log,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName returns the database table name for AnalysisSession.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (AnalysisSession) TableName() string {
	return "analysis_sessions"
}

// Preference is a single key/value row of persisted client state, such as the
// last-used custom analysis instruction.
type Preference struct {
	Key       string    `gorm:"type:text;primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Preference.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Preference) TableName() string {
	return "preferences"
}
