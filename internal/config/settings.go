package config

import (
	"errors"
	"sync"

	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// Settings holds the persisted system settings row, loaded once at startup
// and refreshed only through Update or Reload. Request handlers read the
// in-memory copy, never the table.
type Settings struct {
	mu      sync.RWMutex
	db      *gorm.DB
	current models.SystemSetting
}

// LoadSettings reads the settings row, creating the defaults row on first
// boot.
func LoadSettings(db *gorm.DB) (*Settings, error) {
	s := &Settings{db: db}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the settings row from the database, inserting the defaults
// if the table is empty.
func (s *Settings) Reload() error {
	var row models.SystemSetting
	err := s.db.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.SystemSetting{
			AppName:            "Clinic EHR",
			AppVersion:         "1.0.0",
			MaxUploadSizeMB:    10,
			SessionTimeoutMin:  30,
			EmailNotifications: true,
			SMSNotifications:   true,
			BackupEnabled:      true,
			BackupFrequency:    "daily",
			Theme:              "light",
			Language:           "en",
		}
		if err := s.db.Create(&row).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = row
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current settings.
func (s *Settings) Get() models.SystemSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update persists the given settings and refreshes the in-memory copy. The
// row id and timestamps are managed here; callers supply only the fields.
func (s *Settings) Update(updated models.SystemSetting) (models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated.BaseModel = s.current.BaseModel
	if err := s.db.Save(&updated).Error; err != nil {
		return models.SystemSetting{}, err
	}
	s.current = updated
	return s.current, nil
}
