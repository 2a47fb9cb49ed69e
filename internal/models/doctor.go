package models

// Doctor represents a doctor profile owned by exactly one User.
// Creating one promotes the owning user's role to doctor; deleting it
// demotes the role back to patient.
type Doctor struct {
	BaseModel
	UserID            string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Specialization    string `gorm:"size:100;not null;default:'General'" json:"specialization"`
	LicenseNumber     string `gorm:"size:60;uniqueIndex;not null" json:"licenseNumber"`
	YearsOfExperience int    `gorm:"default:0" json:"yearsOfExperience"`
	AvailableSlots    int    `gorm:"default:0" json:"availableSlots"`
	Bio               string `gorm:"type:text" json:"bio,omitempty"`
	ImageURL          string `gorm:"size:255" json:"imageUrl,omitempty"`

	// Relations
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}
