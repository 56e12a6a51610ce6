package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/tiklens/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository persists simple key/value client state, such as the
// last-used custom analysis instruction.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a preference repository.
// Parameters:
//   - db: initialized gorm handle.
//
// Returns:
//   - *PreferenceRepository: repository instance.
func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored value for key, or empty string when unset.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: preference key.
//
// Returns:
//   - string: stored value, empty when the key does not exist.
//   - error: non-nil only on database failure.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var pref domain.Preference
	err := r.db.WithContext(ctx).First(&pref, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load preference %q: %w", key, err)
	}
	return pref.Value, nil
}

// Set stores or replaces the value for key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: preference key.
//   - value: value to store.
//
// Returns:
//   - error: non-nil on database failure.
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	pref := domain.Preference{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&pref).Error
	if err != nil {
		return fmt.Errorf("failed to store preference %q: %w", key, err)
	}
	return nil
}
