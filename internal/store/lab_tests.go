package store

import (
	"errors"
	"time"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/lifecycle"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// CreateLabTest inserts a lab test as a child of a medical record, copying
// the parent's patient id in the same transaction. Tests are always ordered
// pending with no result fields.
func (s *Store) CreateLabTest(labTest *models.LabTest) error {
	if labTest.MedicalRecordID == "" {
		return errs.Validation("lab test", "medicalRecordId", "is required")
	}
	if labTest.TestName == "" {
		return errs.Validation("lab test", "testName", "is required")
	}
	if labTest.Status == "" {
		labTest.Status = models.LabTestPending
	}
	if labTest.Status != models.LabTestPending {
		return errs.Validation("lab test", "status", "lab tests are always ordered pending")
	}
	if labTest.ResultValue != nil || labTest.ResultDate != nil {
		return errs.Validation("lab test", "resultValue", "must be empty while the test is pending")
	}
	if labTest.OrderedDate.IsZero() {
		labTest.OrderedDate = s.now()
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var parent models.MedicalRecord
		if err := tx.First(&parent, "id = ?", labTest.MedicalRecordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Validation("lab test", "medicalRecordId", "referenced medical record does not exist")
			}
			return err
		}
		labTest.PatientID = parent.PatientID
		return tx.Create(labTest).Error
	})
}

// GetLabTest returns a lab test by id.
func (s *Store) GetLabTest(id string) (*models.LabTest, error) {
	var labTest models.LabTest
	if err := s.db.First(&labTest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("lab test", id)
		}
		return nil, err
	}
	return &labTest, nil
}

// ListLabTestsByPatient returns a patient's lab tests, most recently ordered
// first.
func (s *Store) ListLabTestsByPatient(patientID string) ([]models.LabTest, error) {
	var labTests []models.LabTest
	err := s.db.Where("patient_id = ?", patientID).
		Order("ordered_date DESC").Find(&labTests).Error
	return labTests, err
}

// ListLabTestsByRecord returns all lab tests under a medical record.
func (s *Store) ListLabTestsByRecord(medicalRecordID string) ([]models.LabTest, error) {
	var labTests []models.LabTest
	err := s.db.Where("medical_record_id = ?", medicalRecordID).
		Order("ordered_date DESC").Find(&labTests).Error
	return labTests, err
}

// UpdateLabTest applies patch fields to descriptive columns. Status and
// result fields only change through TransitionLabTest.
func (s *Store) UpdateLabTest(id string, patch *models.LabTest) (*models.LabTest, error) {
	labTest, err := s.GetLabTest(id)
	if err != nil {
		return nil, err
	}
	if patch.MedicalRecordID != "" && patch.MedicalRecordID != labTest.MedicalRecordID {
		return nil, errs.Validation("lab test", "medicalRecordId", "lab tests cannot move between records")
	}
	if patch.PatientID != "" && patch.PatientID != labTest.PatientID {
		return nil, errs.Validation("lab test", "patientId", "is derived from the parent record")
	}
	if patch.TestName != "" {
		labTest.TestName = patch.TestName
	}
	if patch.TestCode != "" {
		labTest.TestCode = patch.TestCode
	}
	if patch.NormalRange != "" {
		labTest.NormalRange = patch.NormalRange
	}
	if patch.Unit != "" {
		labTest.Unit = patch.Unit
	}
	if patch.Notes != "" {
		labTest.Notes = patch.Notes
	}
	if patch.Status != "" && patch.Status != labTest.Status {
		return s.TransitionLabTest(id, patch.Status, patch.ResultValue, patch.ResultDate)
	}
	if err := s.db.Save(labTest).Error; err != nil {
		return nil, err
	}
	return labTest, nil
}

// TransitionLabTest moves a lab test along its status table. Leaving pending
// requires a result value; the result date defaults to now. Requesting the
// current status is a no-op success.
func (s *Store) TransitionLabTest(id string, to models.LabTestStatus, resultValue *string, resultDate *time.Time) (*models.LabTest, error) {
	labTest, err := s.GetLabTest(id)
	if err != nil {
		return nil, err
	}
	noop, err := lifecycle.CheckLabTest(labTest.Status, to)
	if err != nil {
		return nil, err
	}
	if noop {
		return labTest, nil
	}

	if resultValue == nil || *resultValue == "" {
		return nil, errs.Validation("lab test", "resultValue", "required to record a result")
	}
	if resultDate == nil {
		now := s.now()
		resultDate = &now
	}

	res := s.db.Model(&models.LabTest{}).
		Where("id = ? AND status = ?", id, labTest.Status).
		Updates(map[string]interface{}{
			"status":       to,
			"result_value": *resultValue,
			"result_date":  *resultDate,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.Conflict("lab test", "status", "lab test was modified concurrently")
	}
	labTest.Status = to
	labTest.ResultValue = resultValue
	labTest.ResultDate = resultDate
	return labTest, nil
}

// DeleteLabTest removes a lab test.
func (s *Store) DeleteLabTest(id string) error {
	if _, err := s.GetLabTest(id); err != nil {
		return err
	}
	return s.db.Delete(&models.LabTest{}, "id = ?", id).Error
}
