package models

import (
	"time"
)

// PrescriptionStatus represents the lifecycle status of a prescription
type PrescriptionStatus string

const (
	PrescriptionActive    PrescriptionStatus = "active"
	PrescriptionCompleted PrescriptionStatus = "completed"
	PrescriptionCancelled PrescriptionStatus = "cancelled"
)

// Prescription is always a child of exactly one MedicalRecord. PatientID is
// a denormalized copy of the parent record's PatientID, maintained by the
// store inside the same transaction as the insert.
type Prescription struct {
	BaseModel
	MedicalRecordID string             `gorm:"size:36;index;not null" json:"medicalRecordId"`
	PatientID       string             `gorm:"size:36;index;not null" json:"patientId"`
	MedicationName  string             `gorm:"size:255;not null" json:"medicationName"`
	Dosage          string             `gorm:"size:100" json:"dosage"`
	Quantity        int                `json:"quantity,omitempty"`
	Unit            string             `gorm:"size:30" json:"unit,omitempty"`
	Frequency       string             `gorm:"size:100" json:"frequency"`
	Duration        string             `gorm:"size:100" json:"duration"`
	Route           string             `gorm:"size:50" json:"route,omitempty"`
	Instructions    string             `gorm:"type:text" json:"instructions,omitempty"`
	PrescribedDate  time.Time          `json:"prescribedDate"`
	ExpiryDate      *time.Time         `json:"expiryDate,omitempty"`
	Status          PrescriptionStatus `gorm:"size:20;default:'active'" json:"status"`

	// Relations
	MedicalRecord MedicalRecord `gorm:"foreignKey:MedicalRecordID" json:"-"`
	Patient       Patient       `gorm:"foreignKey:PatientID" json:"-"`
}
