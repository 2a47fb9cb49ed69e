package store

import (
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// RepairReport summarizes a denormalized-copy consistency pass.
type RepairReport struct {
	PrescriptionsChecked  int64 `json:"prescriptionsChecked"`
	PrescriptionsRepaired int64 `json:"prescriptionsRepaired"`
	LabTestsChecked       int64 `json:"labTestsChecked"`
	LabTestsRepaired      int64 `json:"labTestsRepaired"`
}

// RepairDenormalizedPatientIDs rewrites any child row whose patient id copy
// has drifted from its parent medical record. The copies are maintained
// transactionally on create, so a nonzero repair count indicates a bug or
// out-of-band data edit worth investigating.
func (s *Store) RepairDenormalizedPatientIDs() (*RepairReport, error) {
	report := &RepairReport{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Prescription{}).Count(&report.PrescriptionsChecked).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.LabTest{}).Count(&report.LabTestsChecked).Error; err != nil {
			return err
		}

		type drifted struct {
			ID       string
			ParentID string
		}

		var prescriptions []drifted
		err := tx.Raw(`SELECT p.id AS id, m.patient_id AS parent_id
			FROM prescriptions p
			JOIN medical_records m ON m.id = p.medical_record_id
			WHERE p.patient_id <> m.patient_id`).Scan(&prescriptions).Error
		if err != nil {
			return err
		}
		for _, row := range prescriptions {
			if err := tx.Model(&models.Prescription{}).Where("id = ?", row.ID).
				Update("patient_id", row.ParentID).Error; err != nil {
				return err
			}
		}
		report.PrescriptionsRepaired = int64(len(prescriptions))

		var labTests []drifted
		err = tx.Raw(`SELECT l.id AS id, m.patient_id AS parent_id
			FROM lab_tests l
			JOIN medical_records m ON m.id = l.medical_record_id
			WHERE l.patient_id <> m.patient_id`).Scan(&labTests).Error
		if err != nil {
			return err
		}
		for _, row := range labTests {
			if err := tx.Model(&models.LabTest{}).Where("id = ?", row.ID).
				Update("patient_id", row.ParentID).Error; err != nil {
				return err
			}
		}
		report.LabTestsRepaired = int64(len(labTests))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
