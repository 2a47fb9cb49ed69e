package store

import (
	"errors"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/lifecycle"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// CreateMedicalRecord inserts a visit record authored by doctorUserID. The
// patient reference is validated and the authoring user must currently hold
// the doctor role. A record may be created as draft or, when the visit is
// already finalized, directly as completed.
func (s *Store) CreateMedicalRecord(doctorUserID string, record *models.MedicalRecord) error {
	if record.PatientID == "" {
		return errs.Validation("medical record", "patientId", "is required")
	}
	if _, err := patientByID(s.db, record.PatientID); err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("medical record", "patientId", "referenced patient does not exist")
		}
		return err
	}
	doctor, err := userByID(s.db, doctorUserID)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("medical record", "doctorId", "referenced user does not exist")
		}
		return err
	}
	if doctor.Role != models.RoleDoctor && doctor.Role != models.RoleAdmin {
		return errs.Validation("medical record", "doctorId", "authoring user is not a doctor")
	}

	if record.Status == "" {
		record.Status = models.RecordDraft
	}
	if !lifecycle.AllowedInitialRecordStatus(record.Status) {
		return errs.Validation("medical record", "status", "records may only be created as draft or completed")
	}
	if record.Status == models.RecordCompleted && record.Diagnosis == "" {
		return errs.Validation("medical record", "diagnosis", "required to complete a record")
	}
	if record.VisitDate.IsZero() {
		record.VisitDate = s.now()
	}
	record.DoctorID = doctorUserID
	return s.db.Create(record).Error
}

// GetMedicalRecord returns a record with its authoring doctor and patient.
func (s *Store) GetMedicalRecord(id string) (*models.MedicalRecord, error) {
	var record models.MedicalRecord
	err := s.db.Preload("Doctor").Preload("Patient").Preload("Patient.User").
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("medical record", id)
		}
		return nil, err
	}
	return &record, nil
}

// ListMedicalRecordsByPatient returns a patient's records, most recent visit
// first.
func (s *Store) ListMedicalRecordsByPatient(patientID string) ([]models.MedicalRecord, error) {
	var records []models.MedicalRecord
	err := s.db.Preload("Doctor").Where("patient_id = ?", patientID).
		Order("visit_date DESC").Find(&records).Error
	return records, err
}

// ListMedicalRecordsByDoctor returns records authored by a doctor's user id.
func (s *Store) ListMedicalRecordsByDoctor(doctorUserID string) ([]models.MedicalRecord, error) {
	var records []models.MedicalRecord
	err := s.db.Preload("Patient").Preload("Patient.User").
		Where("doctor_id = ?", doctorUserID).
		Order("visit_date DESC").Find(&records).Error
	return records, err
}

// UpdateMedicalRecord applies patch fields to a record. Archived records are
// read-only. A status change in the patch is routed through the transition
// table; completing a record requires a diagnosis.
func (s *Store) UpdateMedicalRecord(id string, patch *models.MedicalRecord) (*models.MedicalRecord, error) {
	record, err := s.GetMedicalRecord(id)
	if err != nil {
		return nil, err
	}
	if record.Status == models.RecordArchived {
		return nil, errs.Forbidden("archived medical records are read-only")
	}

	if patch.Department != "" {
		record.Department = patch.Department
	}
	if patch.Reason != "" {
		record.Reason = patch.Reason
	}
	if patch.Symptoms != "" {
		record.Symptoms = patch.Symptoms
	}
	if patch.ClinicalExamination != "" {
		record.ClinicalExamination = patch.ClinicalExamination
	}
	if patch.Diagnosis != "" {
		record.Diagnosis = patch.Diagnosis
	}
	if patch.PrimaryDiagnosis != "" {
		record.PrimaryDiagnosis = patch.PrimaryDiagnosis
	}
	if patch.Treatment != "" {
		record.Treatment = patch.Treatment
	}
	if patch.ExamResult != "" {
		record.ExamResult = patch.ExamResult
	}
	if patch.Notes != "" {
		record.Notes = patch.Notes
	}
	if !patch.VisitDate.IsZero() {
		record.VisitDate = patch.VisitDate
	}

	fromStatus := record.Status
	if patch.Status != "" && patch.Status != fromStatus {
		if _, err := lifecycle.CheckRecord(fromStatus, patch.Status); err != nil {
			return nil, err
		}
		if patch.Status == models.RecordCompleted && record.Diagnosis == "" {
			return nil, errs.Validation("medical record", "diagnosis", "required to complete a record")
		}
		record.Status = patch.Status
	}

	// The status column keeps its optimistic guard even though the other
	// fields are written with a plain save: two concurrent finalizations
	// must not both succeed from a stale read.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if record.Status != fromStatus {
			res := tx.Model(&models.MedicalRecord{}).
				Where("id = ? AND status = ?", id, fromStatus).
				Update("status", record.Status)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errs.Conflict("medical record", "status", "record was modified concurrently")
			}
		}
		return tx.Model(&models.MedicalRecord{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"department":           record.Department,
				"reason":               record.Reason,
				"symptoms":             record.Symptoms,
				"clinical_examination": record.ClinicalExamination,
				"diagnosis":            record.Diagnosis,
				"primary_diagnosis":    record.PrimaryDiagnosis,
				"treatment":            record.Treatment,
				"exam_result":          record.ExamResult,
				"notes":                record.Notes,
				"visit_date":           record.VisitDate,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetMedicalRecord(id)
}

// DeleteMedicalRecord removes a record. Rejected with ConflictError while
// prescriptions or lab tests still hang off it.
func (s *Store) DeleteMedicalRecord(id string) error {
	if _, err := s.GetMedicalRecord(id); err != nil {
		return err
	}
	var prescriptions int64
	if err := s.db.Model(&models.Prescription{}).Where("medical_record_id = ?", id).Count(&prescriptions).Error; err != nil {
		return err
	}
	if prescriptions > 0 {
		return errs.Conflict("medical record", "prescriptions", "record has prescriptions")
	}
	var labTests int64
	if err := s.db.Model(&models.LabTest{}).Where("medical_record_id = ?", id).Count(&labTests).Error; err != nil {
		return err
	}
	if labTests > 0 {
		return errs.Conflict("medical record", "labTests", "record has lab tests")
	}
	return s.db.Delete(&models.MedicalRecord{}, "id = ?", id).Error
}
