package audit

import (
	"testing"
	"time"

	"clinic-ehr-server/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Activity{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// tickingClock returns a clock that advances one second per call so entries
// get distinct timestamps.
func tickingClock() func() time.Time {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestRecordAndList(t *testing.T) {
	log := NewWithClock(newTestDB(t), tickingClock())

	log.Record(models.ActivityLogin, "User logged in", "a@clinic.test", "", "127.0.0.1")
	log.Record(models.ActivityCreate, "Patient created", "a@clinic.test", "", "127.0.0.1")
	log.Record(models.ActivityUpdate, "Record updated", "b@clinic.test", "", "127.0.0.1")

	// Close drains the buffer before the writer stops
	log.Close()

	entries, err := log.List(0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first
	if entries[0].Description != "Record updated" {
		t.Errorf("first entry = %q, want the most recent one", entries[0].Description)
	}
	if entries[2].Type != models.ActivityLogin {
		t.Errorf("last entry type = %s, want login", entries[2].Type)
	}
}

func TestListLimit(t *testing.T) {
	log := NewWithClock(newTestDB(t), tickingClock())
	for i := 0; i < 5; i++ {
		log.Record(models.ActivityView, "Viewed something", "a@clinic.test", "", "")
	}
	log.Close()

	entries, err := log.List(2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}

	rest, err := log.List(10, 2)
	if err != nil {
		t.Fatalf("List with offset: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("got %d entries after offset, want 3", len(rest))
	}
}

func TestClear(t *testing.T) {
	log := NewWithClock(newTestDB(t), tickingClock())
	log.Record(models.ActivityDelete, "Something deleted", "a@clinic.test", "", "")
	log.Close()

	if err := log.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := log.List(0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries after clear, want 0", len(entries))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	log := New(newTestDB(t))
	log.Record(models.ActivityLogin, "User logged in", "a@clinic.test", "", "")
	log.Close()
	log.Close() // must not panic
}
