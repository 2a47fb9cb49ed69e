package store

import (
	"errors"
	"fmt"
	"strings"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewMedicalRecordNumber generates a fresh, globally unique record number.
func NewMedicalRecordNumber() string {
	return fmt.Sprintf("MRN-%s", strings.ToUpper(uuid.New().String()[:8]))
}

// CreatePatient inserts a patient profile for an existing user. The medical
// record number is generated when absent and is immutable afterwards.
func (s *Store) CreatePatient(patient *models.Patient) error {
	if patient.UserID == "" {
		return errs.Validation("patient", "userId", "is required")
	}
	if _, err := userByID(s.db, patient.UserID); err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("patient", "userId", "referenced user does not exist")
		}
		return err
	}

	var existing models.Patient
	err := s.db.Where("user_id = ?", patient.UserID).First(&existing).Error
	if err == nil {
		return errs.Conflict("patient", "userId", "user already has a patient profile")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if !s.AllowDualProfiles {
		var doctors int64
		if err := s.db.Model(&models.Doctor{}).Where("user_id = ?", patient.UserID).Count(&doctors).Error; err != nil {
			return err
		}
		if doctors > 0 {
			return errs.Conflict("patient", "userId", "user already holds a doctor profile")
		}
	}

	if patient.MedicalRecordNumber == "" {
		patient.MedicalRecordNumber = NewMedicalRecordNumber()
	} else {
		var dup models.Patient
		err := s.db.Where("medical_record_number = ?", patient.MedicalRecordNumber).First(&dup).Error
		if err == nil {
			return errs.Conflict("patient", "medicalRecordNumber", patient.MedicalRecordNumber+" is already assigned")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return s.db.Create(patient).Error
}

// GetPatient returns a patient by profile id, falling back to a lookup by
// the owning user's id. The original front end passes either one.
func (s *Store) GetPatient(id string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.Preload("User").First(&patient, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Preload("User").First(&patient, "user_id = ?", id).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("patient", id)
		}
		return nil, err
	}
	return &patient, nil
}

// ListPatients returns all patient profiles with their owning users, newest
// first.
func (s *Store) ListPatients() ([]models.Patient, error) {
	var patients []models.Patient
	err := s.db.Preload("User").Order("created_at DESC").Find(&patients).Error
	return patients, err
}

// UpdatePatient applies patch fields to the profile. The medical record
// number is immutable once assigned.
func (s *Store) UpdatePatient(id string, patch *models.Patient) (*models.Patient, error) {
	patient, err := patientByID(s.db, id)
	if err != nil {
		return nil, err
	}
	if patch.MedicalRecordNumber != "" && patch.MedicalRecordNumber != patient.MedicalRecordNumber {
		return nil, errs.Validation("patient", "medicalRecordNumber", "is immutable once assigned")
	}
	if patch.DateOfBirth != nil {
		patient.DateOfBirth = patch.DateOfBirth
	}
	if patch.Gender != "" {
		patient.Gender = patch.Gender
	}
	if patch.BloodType != "" {
		patient.BloodType = patch.BloodType
	}
	if patch.Allergies != "" {
		patient.Allergies = patch.Allergies
	}
	if patch.MedicalHistory != "" {
		patient.MedicalHistory = patch.MedicalHistory
	}
	if patch.Insurance != "" {
		patient.Insurance = patch.Insurance
	}
	if patch.EmergencyContact != "" {
		patient.EmergencyContact = patch.EmergencyContact
	}
	if patch.EmergencyPhone != "" {
		patient.EmergencyPhone = patch.EmergencyPhone
	}
	if err := s.db.Save(patient).Error; err != nil {
		return nil, err
	}
	return patient, nil
}

// DeletePatient removes a patient profile. Rejected with ConflictError while
// clinical entities still reference the profile.
func (s *Store) DeletePatient(id string) error {
	if _, err := patientByID(s.db, id); err != nil {
		return err
	}
	var records int64
	if err := s.db.Model(&models.MedicalRecord{}).Where("patient_id = ?", id).Count(&records).Error; err != nil {
		return err
	}
	if records > 0 {
		return errs.Conflict("patient", "medicalRecords", "patient has medical records")
	}
	var appointments int64
	if err := s.db.Model(&models.Appointment{}).Where("patient_id = ?", id).Count(&appointments).Error; err != nil {
		return err
	}
	if appointments > 0 {
		return errs.Conflict("patient", "appointments", "patient has appointments")
	}
	return s.db.Delete(&models.Patient{}, "id = ?", id).Error
}
