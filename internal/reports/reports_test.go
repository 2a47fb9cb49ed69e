package reports

import (
	"context"
	"testing"
	"time"

	"clinic-ehr-server/internal/errs"
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
	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createUserAt(t *testing.T, db *gorm.DB, email string, createdAt time.Time) {
	t.Helper()
	user := &models.User{
		Email:     email,
		Role:      models.RolePatient,
		BaseModel: models.BaseModel{CreatedAt: createdAt},
	}
	user.SetPassword("secret-password")
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
}

func TestMonthlyGrowthBuckets(t *testing.T) {
	db := newTestDB(t)
	fixed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	engine := NewWithClock(db, nil, func() time.Time { return fixed })

	createUserAt(t, db, "jan-a@clinic.test", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	createUserAt(t, db, "jan-b@clinic.test", time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC))
	createUserAt(t, db, "feb@clinic.test", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	// Outside the trailing twelve months
	createUserAt(t, db, "old@clinic.test", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	stats, err := engine.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if stats.TotalUsers != 4 {
		t.Errorf("TotalUsers = %d, want 4", stats.TotalUsers)
	}
	if len(stats.MonthlyGrowth) != 12 {
		t.Fatalf("MonthlyGrowth has %d buckets, want 12", len(stats.MonthlyGrowth))
	}
	if first := stats.MonthlyGrowth[0].Month; first != "2023-04" {
		t.Errorf("first bucket = %s, want 2023-04", first)
	}
	if last := stats.MonthlyGrowth[11].Month; last != "2024-03" {
		t.Errorf("last bucket = %s, want 2024-03", last)
	}

	byMonth := make(map[string]int64, 12)
	for _, b := range stats.MonthlyGrowth {
		byMonth[b.Month] = b.Count
	}
	if byMonth["2024-01"] != 2 {
		t.Errorf("2024-01 count = %d, want 2", byMonth["2024-01"])
	}
	if byMonth["2024-02"] != 1 {
		t.Errorf("2024-02 count = %d, want 1", byMonth["2024-02"])
	}
	// Empty months are emitted with a zero count
	if count, ok := byMonth["2023-06"]; !ok || count != 0 {
		t.Errorf("2023-06 bucket = %d (present=%v), want 0", count, ok)
	}
}

func TestMonthlyGrowthEmptyDatabase(t *testing.T) {
	db := newTestDB(t)
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	engine := NewWithClock(db, nil, func() time.Time { return fixed })

	stats, err := engine.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(stats.MonthlyGrowth) != 12 {
		t.Fatalf("MonthlyGrowth has %d buckets, want 12", len(stats.MonthlyGrowth))
	}
	for _, b := range stats.MonthlyGrowth {
		if b.Count != 0 {
			t.Errorf("bucket %s = %d, want 0", b.Month, b.Count)
		}
	}
}

func TestActiveUsersWindow(t *testing.T) {
	db := newTestDB(t)
	engine := New(db, nil)

	createUserAt(t, db, "fresh@clinic.test", time.Now())
	createUserAt(t, db, "stale@clinic.test", time.Now())

	// Push one user's last activity outside the seven day window.
	// UpdateColumn skips the automatic updated_at refresh.
	err := db.Model(&models.User{}).Where("email = ?", "stale@clinic.test").
		UpdateColumn("updated_at", time.Now().Add(-30*24*time.Hour)).Error
	if err != nil {
		t.Fatalf("backdating user: %v", err)
	}

	stats, err := engine.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, want 1", stats.ActiveUsers)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
}

func TestGetReportUnknownType(t *testing.T) {
	engine := New(newTestDB(t), nil)
	_, err := engine.GetReport("unknown-thing", nil, nil)
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUsersReportDateRange(t *testing.T) {
	db := newTestDB(t)
	engine := New(db, nil)

	createUserAt(t, db, "inside@clinic.test", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	createUserAt(t, db, "outside@clinic.test", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	rows, err := engine.GetReport("users", &from, &to)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["email"] != "inside@clinic.test" {
		t.Errorf("row email = %v, want inside@clinic.test", rows[0]["email"])
	}
}
