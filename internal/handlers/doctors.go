package handlers

import (
	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// DoctorHandler handles doctor profile requests.
type DoctorHandler struct {
	Store *store.Store
	Audit audit.Recorder
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(st *store.Store, rec audit.Recorder) *DoctorHandler {
	return &DoctorHandler{Store: st, Audit: rec}
}

// CreateDoctorRequest represents the request body for creating a doctor profile.
type CreateDoctorRequest struct {
	UserID            string `json:"userId" binding:"required"`
	Specialization    string `json:"specialization"`
	LicenseNumber     string `json:"licenseNumber" binding:"required"`
	YearsOfExperience int    `json:"yearsOfExperience"`
	AvailableSlots    int    `json:"availableSlots"`
	Bio               string `json:"bio"`
	ImageURL          string `json:"imageUrl"`
}

// CreateDoctor handles creating a doctor profile (admin). The owning user's
// role is promoted to doctor in the same transaction.
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor := models.Doctor{
		UserID:            req.UserID,
		Specialization:    req.Specialization,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		AvailableSlots:    req.AvailableSlots,
		Bio:               req.Bio,
		ImageURL:          req.ImageURL,
	}
	if doctor.Specialization == "" {
		doctor.Specialization = "General"
	}

	if err := h.Store.CreateDoctor(&doctor); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Doctor profile created: "+doctor.LicenseNumber, actorEmail(c), "", c.ClientIP())
	utils.Created(c, "Doctor created successfully", doctor)
}

// GetDoctors handles listing all doctor profiles. Accessible to every
// authenticated user for appointment booking.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	doctors, err := h.Store.ListDoctors()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID handles fetching a single doctor profile.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	doctor, err := h.Store.GetDoctor(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor)
}

// UpdateDoctorRequest represents the request body for updating a doctor profile.
// The license number is immutable.
type UpdateDoctorRequest struct {
	Specialization    string `json:"specialization"`
	YearsOfExperience int    `json:"yearsOfExperience"`
	AvailableSlots    int    `json:"availableSlots"`
	Bio               string `json:"bio"`
	ImageURL          string `json:"imageUrl"`
}

// UpdateDoctor handles updating a doctor profile (admin).
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	patch := &models.Doctor{
		Specialization:    req.Specialization,
		YearsOfExperience: req.YearsOfExperience,
		AvailableSlots:    req.AvailableSlots,
		Bio:               req.Bio,
		ImageURL:          req.ImageURL,
	}
	doctor, err := h.Store.UpdateDoctor(c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Doctor updated: "+doctor.LicenseNumber, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Doctor updated successfully", doctor)
}

// DeleteDoctor handles deleting a doctor profile (admin). Rejected while the
// doctor still has appointments or authored records; on success the owning
// user's role is demoted back to patient.
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	doctorID := c.Param("id")

	doctor, err := h.Store.GetDoctor(doctorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeleteDoctor(doctor.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Doctor deleted: "+doctor.LicenseNumber, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Doctor deleted successfully", nil)
}
