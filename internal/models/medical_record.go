package models

import (
	"time"
)

// RecordStatus represents the lifecycle status of a medical record
type RecordStatus string

const (
	RecordDraft     RecordStatus = "draft"
	RecordCompleted RecordStatus = "completed"
	RecordArchived  RecordStatus = "archived"
)

// MedicalRecord represents a clinical visit entry authored by a doctor.
// DoctorID references the authoring doctor's User id, not the Doctor
// profile id (Appointment.DoctorID is the opposite).
type MedicalRecord struct {
	BaseModel
	PatientID           string       `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID            string       `gorm:"size:36;index;not null" json:"doctorId"`
	VisitDate           time.Time    `json:"visitDate"`
	Department          string       `gorm:"size:100" json:"department,omitempty"`
	Reason              string       `gorm:"type:text" json:"reason,omitempty"`
	Symptoms            string       `gorm:"type:text" json:"symptoms,omitempty"`
	ClinicalExamination string       `gorm:"type:text" json:"clinicalExamination,omitempty"`
	Diagnosis           string       `gorm:"type:text" json:"diagnosis,omitempty"`
	PrimaryDiagnosis    string       `gorm:"size:255" json:"primaryDiagnosis,omitempty"`
	Treatment           string       `gorm:"type:text" json:"treatment,omitempty"`
	ExamResult          string       `gorm:"type:text" json:"examResult,omitempty"`
	Notes               string       `gorm:"type:text" json:"notes,omitempty"`
	Status              RecordStatus `gorm:"size:20;default:'draft'" json:"status"`

	// Relations
	Patient       Patient        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor        User           `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Prescriptions []Prescription `gorm:"foreignKey:MedicalRecordID" json:"prescriptions,omitempty"`
	LabTests      []LabTest      `gorm:"foreignKey:MedicalRecordID" json:"labTests,omitempty"`
}
