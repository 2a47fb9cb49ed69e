// Package store implements the clinical entity store: CRUD primitives for
// the entity graph with foreign-key integrity enforced at write time, status
// transitions applied under an optimistic guard, and the denormalized
// patient id copies on child entities maintained transactionally.
package store

import (
	"errors"
	"time"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// Store wraps the database with write-time integrity checks. The clock is
// injectable so tests can pin "now".
type Store struct {
	db  *gorm.DB
	now func() time.Time

	// AllowDualProfiles permits one user to hold both a Doctor and a
	// Patient profile (e.g. a doctor receiving care at the same clinic).
	AllowDualProfiles bool
}

// New creates a Store using the wall clock.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NewWithClock creates a Store with a fixed clock, for tests.
func NewWithClock(db *gorm.DB, now func() time.Time) *Store {
	return &Store{db: db, now: now}
}

// DB exposes the underlying handle for read paths that need ad hoc queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// wrapNotFound converts gorm's record-not-found into the taxonomy error and
// passes everything else through.
func wrapNotFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(entity, id)
	}
	return err
}

// userByID loads a user or returns NotFound.
func userByID(tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", id)
		}
		return nil, err
	}
	return &user, nil
}

// patientByID loads a patient profile or returns NotFound.
func patientByID(tx *gorm.DB, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := tx.First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("patient", id)
		}
		return nil, err
	}
	return &patient, nil
}

// doctorByID loads a doctor profile or returns NotFound.
func doctorByID(tx *gorm.DB, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := tx.First(&doctor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("doctor", id)
		}
		return nil, err
	}
	return &doctor, nil
}

// DoctorProfileForUser resolves a doctor's User id to their Doctor profile.
// MedicalRecord.DoctorID stores the User id while Appointment.DoctorID
// stores the profile id; this is the one sanctioned conversion between the
// two.
func (s *Store) DoctorProfileForUser(userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.db.First(&doctor, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("doctor profile", userID)
		}
		return nil, err
	}
	return &doctor, nil
}

// UserForDoctor resolves a Doctor profile id back to the owning User id.
func (s *Store) UserForDoctor(doctorID string) (string, error) {
	doctor, err := doctorByID(s.db, doctorID)
	if err != nil {
		return "", err
	}
	return doctor.UserID, nil
}

// PatientProfileForUser resolves a patient's User id to their Patient
// profile.
func (s *Store) PatientProfileForUser(userID string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.First(&patient, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("patient profile", userID)
		}
		return nil, err
	}
	return &patient, nil
}
