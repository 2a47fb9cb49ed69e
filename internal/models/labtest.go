package models

import (
	"time"
)

// LabTestStatus represents the lifecycle status of a lab test
type LabTestStatus string

const (
	LabTestPending   LabTestStatus = "pending"
	LabTestCompleted LabTestStatus = "completed"
	LabTestAbnormal  LabTestStatus = "abnormal"
)

// LabTest is always a child of exactly one MedicalRecord. PatientID is a
// denormalized copy maintained the same way as Prescription.PatientID.
// ResultDate and ResultValue stay null while the test is pending.
type LabTest struct {
	BaseModel
	MedicalRecordID string        `gorm:"size:36;index;not null" json:"medicalRecordId"`
	PatientID       string        `gorm:"size:36;index;not null" json:"patientId"`
	TestName        string        `gorm:"size:255;not null" json:"testName"`
	TestCode        string        `gorm:"size:60" json:"testCode,omitempty"`
	OrderedDate     time.Time     `json:"orderedDate"`
	ResultDate      *time.Time    `json:"resultDate,omitempty"`
	ResultValue     *string       `gorm:"type:text" json:"resultValue,omitempty"`
	NormalRange     string        `gorm:"size:100" json:"normalRange,omitempty"`
	Unit            string        `gorm:"size:30" json:"unit,omitempty"`
	Status          LabTestStatus `gorm:"size:20;default:'pending'" json:"status"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	MedicalRecord MedicalRecord `gorm:"foreignKey:MedicalRecordID" json:"-"`
	Patient       Patient       `gorm:"foreignKey:PatientID" json:"-"`
}
