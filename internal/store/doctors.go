package store

import (
	"errors"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// CreateDoctor inserts a doctor profile and promotes the owning user's role
// to doctor in the same transaction.
func (s *Store) CreateDoctor(doctor *models.Doctor) error {
	if doctor.UserID == "" {
		return errs.Validation("doctor", "userId", "is required")
	}
	if doctor.LicenseNumber == "" {
		return errs.Validation("doctor", "licenseNumber", "is required")
	}

	user, err := userByID(s.db, doctor.UserID)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("doctor", "userId", "referenced user does not exist")
		}
		return err
	}

	var existing models.Doctor
	err = s.db.Where("user_id = ?", doctor.UserID).First(&existing).Error
	if err == nil {
		return errs.Conflict("doctor", "userId", "user already has a doctor profile")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if !s.AllowDualProfiles {
		var patients int64
		if err := s.db.Model(&models.Patient{}).Where("user_id = ?", doctor.UserID).Count(&patients).Error; err != nil {
			return err
		}
		if patients > 0 {
			return errs.Conflict("doctor", "userId", "user already holds a patient profile")
		}
	}

	var dup models.Doctor
	err = s.db.Where("license_number = ?", doctor.LicenseNumber).First(&dup).Error
	if err == nil {
		return errs.Conflict("doctor", "licenseNumber", doctor.LicenseNumber+" is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doctor).Error; err != nil {
			return err
		}
		return tx.Model(user).Update("role", models.RoleDoctor).Error
	})
}

// GetDoctor returns a doctor profile with its owning user.
func (s *Store) GetDoctor(id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.db.Preload("User").First(&doctor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("doctor", id)
		}
		return nil, err
	}
	return &doctor, nil
}

// ListDoctors returns all doctor profiles with their owning users, newest
// first.
func (s *Store) ListDoctors() ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := s.db.Preload("User").Order("created_at DESC").Find(&doctors).Error
	return doctors, err
}

// UpdateDoctor applies patch fields. The license number and owning user are
// immutable.
func (s *Store) UpdateDoctor(id string, patch *models.Doctor) (*models.Doctor, error) {
	doctor, err := doctorByID(s.db, id)
	if err != nil {
		return nil, err
	}
	if patch.LicenseNumber != "" && patch.LicenseNumber != doctor.LicenseNumber {
		return nil, errs.Validation("doctor", "licenseNumber", "is immutable once assigned")
	}
	if patch.Specialization != "" {
		doctor.Specialization = patch.Specialization
	}
	if patch.YearsOfExperience != 0 {
		doctor.YearsOfExperience = patch.YearsOfExperience
	}
	if patch.AvailableSlots != 0 {
		doctor.AvailableSlots = patch.AvailableSlots
	}
	if patch.Bio != "" {
		doctor.Bio = patch.Bio
	}
	if patch.ImageURL != "" {
		doctor.ImageURL = patch.ImageURL
	}
	if err := s.db.Save(doctor).Error; err != nil {
		return nil, err
	}
	return doctor, nil
}

// DeleteDoctor removes a doctor profile and demotes the owning user back to
// patient. Rejected with ConflictError while the doctor still has
// appointments or the owning user has authored medical records.
func (s *Store) DeleteDoctor(id string) error {
	doctor, err := doctorByID(s.db, id)
	if err != nil {
		return err
	}
	var appointments int64
	if err := s.db.Model(&models.Appointment{}).Where("doctor_id = ?", id).Count(&appointments).Error; err != nil {
		return err
	}
	if appointments > 0 {
		return errs.Conflict("doctor", "appointments", "doctor has scheduled appointments")
	}
	var records int64
	if err := s.db.Model(&models.MedicalRecord{}).Where("doctor_id = ?", doctor.UserID).Count(&records).Error; err != nil {
		return err
	}
	if records > 0 {
		return errs.Conflict("doctor", "medicalRecords", "doctor has authored medical records")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Doctor{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", doctor.UserID).
			Update("role", models.RolePatient).Error
	})
}
