// Package audit records an append-only activity trail for every accepted
// mutation and sensitive read. Recording is fire-and-forget: entries flow
// through a buffered channel to a single writer goroutine, and a full buffer
// or failed insert is logged operationally and dropped, never surfaced to
// the caller.
package audit

import (
	"log"
	"sync"
	"time"

	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// Recorder is the cross-cutting audit interface injected into handlers.
type Recorder interface {
	Record(activityType models.ActivityType, description, actor, details, ipAddress string)
}

// Log is the GORM-backed Recorder.
type Log struct {
	db      *gorm.DB
	entries chan models.Activity
	wg      sync.WaitGroup
	once    sync.Once
	now     func() time.Time
}

const bufferSize = 256

// New starts a Log writing to the given database.
func New(db *gorm.DB) *Log {
	return NewWithClock(db, time.Now)
}

// NewWithClock starts a Log with a fixed clock, for tests.
func NewWithClock(db *gorm.DB, now func() time.Time) *Log {
	l := &Log{
		db:      db,
		entries: make(chan models.Activity, bufferSize),
		now:     now,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Log) run() {
	defer l.wg.Done()
	for entry := range l.entries {
		if err := l.db.Create(&entry).Error; err != nil {
			log.Printf("audit: failed to write activity entry: %v", err)
		}
	}
}

// Record enqueues an activity entry. Never blocks; a full buffer drops the
// entry with an operational log line.
func (l *Log) Record(activityType models.ActivityType, description, actor, details, ipAddress string) {
	entry := models.Activity{
		Type:        activityType,
		Description: description,
		User:        actor,
		Details:     details,
		IPAddress:   ipAddress,
		Timestamp:   l.now(),
	}
	select {
	case l.entries <- entry:
	default:
		log.Printf("audit: buffer full, dropping activity entry: %s", description)
	}
}

// Close drains pending entries and stops the writer. Safe to call more than
// once.
func (l *Log) Close() {
	l.once.Do(func() {
		close(l.entries)
	})
	l.wg.Wait()
}

// List returns activity entries, newest first.
func (l *Log) List(limit, offset int) ([]models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var activities []models.Activity
	err := l.db.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&activities).Error
	return activities, err
}

// Clear deletes every activity entry. Admin-only bulk operation; individual
// entries are otherwise immutable.
func (l *Log) Clear() error {
	return l.db.Where("1 = 1").Delete(&models.Activity{}).Error
}
