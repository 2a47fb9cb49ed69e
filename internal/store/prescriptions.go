package store

import (
	"errors"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/lifecycle"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// CreatePrescription inserts a prescription as a child of a medical record.
// The parent's patient id is read and copied inside the same transaction so
// the denormalized column can never diverge on create.
func (s *Store) CreatePrescription(prescription *models.Prescription) error {
	if prescription.MedicalRecordID == "" {
		return errs.Validation("prescription", "medicalRecordId", "is required")
	}
	if prescription.MedicationName == "" {
		return errs.Validation("prescription", "medicationName", "is required")
	}
	if prescription.Status == "" {
		prescription.Status = models.PrescriptionActive
	}
	if prescription.Status != models.PrescriptionActive {
		return errs.Validation("prescription", "status", "prescriptions are always created active")
	}
	if prescription.PrescribedDate.IsZero() {
		prescription.PrescribedDate = s.now()
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var parent models.MedicalRecord
		if err := tx.First(&parent, "id = ?", prescription.MedicalRecordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Validation("prescription", "medicalRecordId", "referenced medical record does not exist")
			}
			return err
		}
		prescription.PatientID = parent.PatientID
		return tx.Create(prescription).Error
	})
}

// GetPrescription returns a prescription by id.
func (s *Store) GetPrescription(id string) (*models.Prescription, error) {
	var prescription models.Prescription
	if err := s.db.First(&prescription, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("prescription", id)
		}
		return nil, err
	}
	return &prescription, nil
}

// ListPrescriptionsByPatient returns a patient's prescriptions, most recent
// first.
func (s *Store) ListPrescriptionsByPatient(patientID string) ([]models.Prescription, error) {
	var prescriptions []models.Prescription
	err := s.db.Where("patient_id = ?", patientID).
		Order("prescribed_date DESC").Find(&prescriptions).Error
	return prescriptions, err
}

// ListPrescriptionsByRecord returns all prescriptions under a medical
// record.
func (s *Store) ListPrescriptionsByRecord(medicalRecordID string) ([]models.Prescription, error) {
	var prescriptions []models.Prescription
	err := s.db.Where("medical_record_id = ?", medicalRecordID).
		Order("prescribed_date DESC").Find(&prescriptions).Error
	return prescriptions, err
}

// UpdatePrescription applies patch fields. Parent record, patient copy and
// status are not writable here; status goes through TransitionPrescription.
func (s *Store) UpdatePrescription(id string, patch *models.Prescription) (*models.Prescription, error) {
	prescription, err := s.GetPrescription(id)
	if err != nil {
		return nil, err
	}
	if patch.MedicalRecordID != "" && patch.MedicalRecordID != prescription.MedicalRecordID {
		return nil, errs.Validation("prescription", "medicalRecordId", "prescriptions cannot move between records")
	}
	if patch.PatientID != "" && patch.PatientID != prescription.PatientID {
		return nil, errs.Validation("prescription", "patientId", "is derived from the parent record")
	}
	if patch.MedicationName != "" {
		prescription.MedicationName = patch.MedicationName
	}
	if patch.Dosage != "" {
		prescription.Dosage = patch.Dosage
	}
	if patch.Quantity != 0 {
		prescription.Quantity = patch.Quantity
	}
	if patch.Unit != "" {
		prescription.Unit = patch.Unit
	}
	if patch.Frequency != "" {
		prescription.Frequency = patch.Frequency
	}
	if patch.Duration != "" {
		prescription.Duration = patch.Duration
	}
	if patch.Route != "" {
		prescription.Route = patch.Route
	}
	if patch.Instructions != "" {
		prescription.Instructions = patch.Instructions
	}
	if patch.ExpiryDate != nil {
		prescription.ExpiryDate = patch.ExpiryDate
	}
	if patch.Status != "" && patch.Status != prescription.Status {
		return s.TransitionPrescription(id, patch.Status)
	}
	if err := s.db.Save(prescription).Error; err != nil {
		return nil, err
	}
	return prescription, nil
}

// TransitionPrescription moves a prescription along its status table under
// an optimistic guard. Requesting the current status is a no-op success.
func (s *Store) TransitionPrescription(id string, to models.PrescriptionStatus) (*models.Prescription, error) {
	prescription, err := s.GetPrescription(id)
	if err != nil {
		return nil, err
	}
	noop, err := lifecycle.CheckPrescription(prescription.Status, to)
	if err != nil {
		return nil, err
	}
	if noop {
		return prescription, nil
	}
	res := s.db.Model(&models.Prescription{}).
		Where("id = ? AND status = ?", id, prescription.Status).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.Conflict("prescription", "status", "prescription was modified concurrently")
	}
	prescription.Status = to
	return prescription, nil
}

// DeletePrescription removes a prescription.
func (s *Store) DeletePrescription(id string) error {
	if _, err := s.GetPrescription(id); err != nil {
		return err
	}
	return s.db.Delete(&models.Prescription{}, "id = ?", id).Error
}
