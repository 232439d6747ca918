package models

import (
	"time"
)

// SiteSetting is a typed key/value row for site-wide switches like
// maintenance mode. Read and written only through the AdminService accessors.
type SiteSetting struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	Key   string `json:"key" gorm:"size:100;uniqueIndex;not null"`
	Value string `json:"value" gorm:"type:text"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Well-known setting keys.
const (
	SettingMaintenanceEnabled = "maintenance_enabled"
	SettingMaintenanceEndTime = "maintenance_end_time"
	SettingMaintenanceMessage = "maintenance_message"
	SettingMaintenanceTitle   = "maintenance_title"
)
