package mocks

import (
	"context"

	"github.com/aimd54/staff-directory/internal/models"
)

// MockPreferenceRepository is a simple mock for the preference repository
type MockPreferenceRepository struct {
	GetFunc func(ctx context.Context, empid string) (*models.ClientPreference, error)
	SetFunc func(ctx context.Context, pref *models.ClientPreference) error
}

func (m *MockPreferenceRepository) Get(ctx context.Context, empid string) (*models.ClientPreference, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, empid)
	}
	return &models.ClientPreference{EmpID: empid}, nil
}

func (m *MockPreferenceRepository) Set(ctx context.Context, pref *models.ClientPreference) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, pref)
	}
	return nil
}
