package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/staff-directory/internal/models"
)

// PreferenceRepository stores the prompt flags of each employee.
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the preferences of empid, or the defaults when none are stored.
func (r *PreferenceRepository) Get(ctx context.Context, empid string) (*models.ClientPreference, error) {
	var pref models.ClientPreference
	err := r.db.WithContext(ctx).Where("emp_id = ?", empid).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ClientPreference{EmpID: empid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences of %s: %w", empid, err)
	}
	return &pref, nil
}

// Set inserts or replaces the flags of pref.EmpID.
func (r *PreferenceRepository) Set(ctx context.Context, pref *models.ClientPreference) error {
	if pref.EmpID == "" {
		return fmt.Errorf("empid is required")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "emp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"install_prompt_dismissed",
			"notification_prompt_dismissed",
			"updated_at",
		}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences of %s: %w", pref.EmpID, err)
	}
	return nil
}
