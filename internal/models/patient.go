package models

import (
	"time"
)

// Gender enum for patient profiles
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient represents a patient profile owned by exactly one User.
// MedicalRecordNumber is assigned once and never changes.
type Patient struct {
	BaseModel
	UserID              string     `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	MedicalRecordNumber string     `gorm:"size:40;uniqueIndex;not null" json:"medicalRecordNumber"`
	DateOfBirth         *time.Time `json:"dateOfBirth,omitempty"`
	Gender              Gender     `gorm:"size:10" json:"gender,omitempty"`
	BloodType           string     `gorm:"size:10" json:"bloodType,omitempty"`
	Allergies           string     `gorm:"type:text" json:"allergies,omitempty"`
	MedicalHistory      string     `gorm:"type:text" json:"medicalHistory,omitempty"`
	Insurance           string     `gorm:"size:255" json:"insurance,omitempty"`
	EmergencyContact    string     `gorm:"size:255" json:"emergencyContact,omitempty"`
	EmergencyPhone      string     `gorm:"size:30" json:"emergencyPhone,omitempty"`

	// Relations
	User          User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Records       []MedicalRecord `gorm:"foreignKey:PatientID" json:"-"`
	Prescriptions []Prescription  `gorm:"foreignKey:PatientID" json:"-"`
	LabTests      []LabTest       `gorm:"foreignKey:PatientID" json:"-"`
	Appointments  []Appointment   `gorm:"foreignKey:PatientID" json:"-"`
}
