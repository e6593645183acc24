package models

import "time"

// ClientPreference holds the long-lived prompt flags of one employee.
type ClientPreference struct {
	ID                          uint      `gorm:"primaryKey" json:"-"`
	EmpID                       string    `gorm:"uniqueIndex;not null;size:64" json:"empid"`
	InstallPromptDismissed      bool      `gorm:"not null;default:false" json:"install_prompt_dismissed"`
	NotificationPromptDismissed bool      `gorm:"not null;default:false" json:"notification_prompt_dismissed"`
	CreatedAt                   time.Time `json:"-"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// TableName specifies the table name for ClientPreference model.
func (ClientPreference) TableName() string {
	return "client_preferences"
}
