package models

import (
	"time"
)

// ActivityType classifies an audit log entry
type ActivityType string

const (
	ActivityLogin    ActivityType = "login"
	ActivityLogout   ActivityType = "logout"
	ActivityCreate   ActivityType = "create"
	ActivityUpdate   ActivityType = "update"
	ActivityDelete   ActivityType = "delete"
	ActivityExport   ActivityType = "export"
	ActivityImport   ActivityType = "import"
	ActivityReport   ActivityType = "report"
	ActivitySettings ActivityType = "settings"
	ActivityView     ActivityType = "view"
)

// Activity is an append-only audit log entry. Entries are never updated;
// the only bulk operation is the admin-triggered clear.
type Activity struct {
	BaseModel
	Type        ActivityType `gorm:"size:20;not null" json:"type"`
	Description string       `gorm:"size:255;not null" json:"description"`
	User        string       `gorm:"size:255;not null" json:"user"` // actor email, kept readable for audits
	Details     string       `gorm:"type:text" json:"details,omitempty"`
	IPAddress   string       `gorm:"size:60" json:"ipAddress,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
