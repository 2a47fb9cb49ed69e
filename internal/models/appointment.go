package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a scheduled visit. DoctorID references the Doctor
// profile id (not the doctor's User id, unlike MedicalRecord.DoctorID).
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID        string            `gorm:"size:36;index;not null" json:"doctorId"`
	AppointmentDate time.Time         `json:"appointmentDate"`
	Status          AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason          string            `gorm:"size:255" json:"reason,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}
