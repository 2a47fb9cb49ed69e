// Package reports implements the read-only aggregation engine behind the
// admin dashboard: entity counts, active-user counts and month-bucketed
// growth, plus flat row projections for exportable reports.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// MonthBucket is one month of the trailing-twelve-months growth series.
type MonthBucket struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// Stats is the dashboard aggregate view.
type Stats struct {
	TotalUsers          int64         `json:"totalUsers"`
	TotalPatients       int64         `json:"totalPatients"`
	TotalDoctors        int64         `json:"totalDoctors"`
	TotalMedicalRecords int64         `json:"totalMedicalRecords"`
	TotalPrescriptions  int64         `json:"totalPrescriptions"`
	TotalLabTests       int64         `json:"totalLabTests"`
	ActiveUsers         int64         `json:"activeUsers"`
	MonthlyGrowth       []MonthBucket `json:"monthlyGrowth"`
}

const (
	statsCacheKey = "ehr:stats"
	statsCacheTTL = 60 * time.Second
	activeWindow  = 7 * 24 * time.Hour
)

// Engine runs the aggregation queries. The clock is injectable for tests;
// the Redis client is optional and only used as a read-through cache for
// the stats view.
type Engine struct {
	db    *gorm.DB
	cache *redis.Client
	now   func() time.Time
}

// New creates an Engine using the wall clock. cache may be nil.
func New(db *gorm.DB, cache *redis.Client) *Engine {
	return &Engine{db: db, cache: cache, now: time.Now}
}

// NewWithClock creates an Engine with a fixed clock, for tests.
func NewWithClock(db *gorm.DB, cache *redis.Client, now func() time.Time) *Engine {
	return &Engine{db: db, cache: cache, now: now}
}

// GetStats computes the dashboard aggregates. Cached in Redis for a minute
// when a client is configured; cache failures fall through to the database.
func (e *Engine) GetStats(ctx context.Context) (*Stats, error) {
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, statsCacheKey).Result()
		if err == nil && cached != "" {
			var stats Stats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		} else if err != nil && err != redis.Nil {
			log.Printf("reports: stats cache read failed: %v", err)
		}
	}

	stats := &Stats{}
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &stats.TotalUsers},
		{&models.Patient{}, &stats.TotalPatients},
		{&models.MedicalRecord{}, &stats.TotalMedicalRecords},
		{&models.Prescription{}, &stats.TotalPrescriptions},
		{&models.LabTest{}, &stats.TotalLabTests},
	}
	for _, c := range counts {
		if err := e.db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	if err := e.db.Model(&models.User{}).Where("role = ?", models.RoleDoctor).
		Count(&stats.TotalDoctors).Error; err != nil {
		return nil, err
	}
	if err := e.db.Model(&models.User{}).
		Where("updated_at >= ?", e.now().Add(-activeWindow)).
		Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	growth, err := e.monthlyGrowth()
	if err != nil {
		return nil, err
	}
	stats.MonthlyGrowth = growth

	if e.cache != nil {
		payload, err := json.Marshal(stats)
		if err == nil {
			if err := e.cache.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
				log.Printf("reports: stats cache write failed: %v", err)
			}
		}
	}
	return stats, nil
}

// monthlyGrowth counts users created in each of the trailing 12 calendar
// months. Buckets are half-open [monthStart, nextMonthStart) so a timestamp
// on a month boundary is counted exactly once, and every bucket is emitted
// even when its count is zero.
func (e *Engine) monthlyGrowth() ([]MonthBucket, error) {
	now := e.now()
	buckets := make([]MonthBucket, 0, 12)
	for i := 11; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
			AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		var count int64
		err := e.db.Model(&models.User{}).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, MonthBucket{
			Month: start.Format("2006-01"),
			Count: count,
		})
	}
	return buckets, nil
}

// Row is one flat report line, rendered as ordered JSON object by the
// handler layer.
type Row map[string]interface{}

// GetReport produces the projection named by reportType, optionally limited
// to entities created within [from, to]. Empty result sets return an empty
// slice, never an error.
func (e *Engine) GetReport(reportType string, from, to *time.Time) ([]Row, error) {
	switch reportType {
	case "", "overview":
		return e.overviewReport()
	case "users":
		return e.usersReport(from, to)
	case "patients":
		return e.patientsReport(from, to)
	case "medical-records":
		return e.medicalRecordsReport(from, to)
	case "prescriptions":
		return e.prescriptionsReport(from, to)
	case "lab-tests":
		return e.labTestsReport(from, to)
	default:
		return nil, errs.Validation("report", "type", "unknown report type "+reportType)
	}
}

func (e *Engine) rangeScope(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil && to != nil {
			return db.Where("created_at BETWEEN ? AND ?", *from, *to)
		}
		return db
	}
}

func (e *Engine) overviewReport() ([]Row, error) {
	stats, err := e.GetStats(context.Background())
	if err != nil {
		return nil, err
	}
	return []Row{{
		"totalUsers":          stats.TotalUsers,
		"totalPatients":       stats.TotalPatients,
		"totalDoctors":        stats.TotalDoctors,
		"totalMedicalRecords": stats.TotalMedicalRecords,
		"totalPrescriptions":  stats.TotalPrescriptions,
		"totalLabTests":       stats.TotalLabTests,
	}}, nil
}

func (e *Engine) usersReport(from, to *time.Time) ([]Row, error) {
	var users []models.User
	if err := e.db.Scopes(e.rangeScope(from, to)).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, Row{
			"id":        u.ID,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"email":     u.Email,
			"role":      u.Role,
			"phone":     u.Phone,
			"address":   u.Address,
			"createdAt": u.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows, nil
}

func (e *Engine) patientsReport(from, to *time.Time) ([]Row, error) {
	var patients []models.Patient
	err := e.db.Scopes(e.rangeScope(from, to)).Preload("User").
		Order("created_at DESC").Find(&patients).Error
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(patients))
	for _, p := range patients {
		dob := ""
		if p.DateOfBirth != nil {
			dob = p.DateOfBirth.Format("2006-01-02")
		}
		rows = append(rows, Row{
			"id":                  p.ID,
			"medicalRecordNumber": p.MedicalRecordNumber,
			"patient":             fmt.Sprintf("%s %s", p.User.FirstName, p.User.LastName),
			"email":               p.User.Email,
			"dateOfBirth":         dob,
			"gender":              p.Gender,
			"createdAt":           p.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows, nil
}

func (e *Engine) medicalRecordsReport(from, to *time.Time) ([]Row, error) {
	var records []models.MedicalRecord
	err := e.db.Scopes(e.rangeScope(from, to)).
		Preload("Patient").Preload("Patient.User").Preload("Doctor").
		Order("visit_date DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			"id":                  r.ID,
			"medicalRecordNumber": r.Patient.MedicalRecordNumber,
			"patient":             fmt.Sprintf("%s %s", r.Patient.User.FirstName, r.Patient.User.LastName),
			"doctor":              fmt.Sprintf("%s %s", r.Doctor.FirstName, r.Doctor.LastName),
			"diagnosis":           r.Diagnosis,
			"primaryDiagnosis":    r.PrimaryDiagnosis,
			"status":              r.Status,
			"visitDate":           r.VisitDate.Format("2006-01-02"),
		})
	}
	return rows, nil
}

func (e *Engine) prescriptionsReport(from, to *time.Time) ([]Row, error) {
	var prescriptions []models.Prescription
	err := e.db.Scopes(e.rangeScope(from, to)).
		Preload("Patient").Preload("Patient.User").
		Order("prescribed_date DESC").Find(&prescriptions).Error
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(prescriptions))
	for _, p := range prescriptions {
		rows = append(rows, Row{
			"id":                  p.ID,
			"patient":             fmt.Sprintf("%s %s", p.Patient.User.FirstName, p.Patient.User.LastName),
			"medicalRecordNumber": p.Patient.MedicalRecordNumber,
			"medicationName":      p.MedicationName,
			"dosage":              p.Dosage,
			"frequency":           p.Frequency,
			"duration":            p.Duration,
			"status":              p.Status,
			"prescribedDate":      p.PrescribedDate.Format("2006-01-02"),
		})
	}
	return rows, nil
}

func (e *Engine) labTestsReport(from, to *time.Time) ([]Row, error) {
	var labTests []models.LabTest
	err := e.db.Scopes(e.rangeScope(from, to)).
		Preload("Patient").Preload("Patient.User").
		Order("ordered_date DESC").Find(&labTests).Error
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(labTests))
	for _, l := range labTests {
		result := ""
		if l.ResultValue != nil {
			result = *l.ResultValue
		}
		rows = append(rows, Row{
			"id":                  l.ID,
			"patient":             fmt.Sprintf("%s %s", l.Patient.User.FirstName, l.Patient.User.LastName),
			"medicalRecordNumber": l.Patient.MedicalRecordNumber,
			"testName":            l.TestName,
			"result":              result,
			"status":              l.Status,
			"orderedDate":         l.OrderedDate.Format("2006-01-02"),
		})
	}
	return rows, nil
}
