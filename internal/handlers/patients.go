package handlers

import (
	"time"

	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/authz"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// PatientHandler handles patient profile requests.
type PatientHandler struct {
	Store *store.Store
	Gate  *authz.Gate
	Audit audit.Recorder
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(st *store.Store, gate *authz.Gate, rec audit.Recorder) *PatientHandler {
	return &PatientHandler{Store: st, Gate: gate, Audit: rec}
}

// CreatePatientRequest represents the request body for creating a patient profile.
type CreatePatientRequest struct {
	UserID           string `json:"userId" binding:"required"`
	DateOfBirth      string `json:"dateOfBirth"` // YYYY-MM-DD
	Gender           string `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType        string `json:"bloodType"`
	Allergies        string `json:"allergies"`
	MedicalHistory   string `json:"medicalHistory"`
	Insurance        string `json:"insurance"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
}

// CreatePatient handles creating a patient profile for an existing user. The
// medical record number is assigned by the store and never supplied by the
// client.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient := models.Patient{
		UserID:           req.UserID,
		Gender:           models.Gender(req.Gender),
		BloodType:        req.BloodType,
		Allergies:        req.Allergies,
		MedicalHistory:   req.MedicalHistory,
		Insurance:        req.Insurance,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		patient.DateOfBirth = &dob
	}

	if err := h.Store.CreatePatient(&patient); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Patient profile created: "+patient.MedicalRecordNumber, actorEmail(c), "", c.ClientIP())
	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients handles listing all patient profiles (doctors and admins).
func (h *PatientHandler) GetPatients(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if err := h.Gate.CanListPatients(principal); err != nil {
		utils.RespondError(c, err)
		return
	}

	patients, err := h.Store.ListPatients()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID handles fetching a single patient profile. Patients can
// only fetch their own.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patient, err := h.Store.GetPatient(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadPatientScoped(principal, "patient", patient.ID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// GetOwnPatientProfile handles fetching the authenticated patient's own
// profile.
func (h *PatientHandler) GetOwnPatientProfile(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patient, err := h.Store.PatientProfileForUser(principal.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Patient profile fetched successfully", patient)
}

// UpdatePatientRequest represents the request body for updating a patient profile.
// The medical record number is immutable.
type UpdatePatientRequest struct {
	DateOfBirth      string `json:"dateOfBirth"`
	Gender           string `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType        string `json:"bloodType"`
	Allergies        string `json:"allergies"`
	MedicalHistory   string `json:"medicalHistory"`
	Insurance        string `json:"insurance"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
}

// UpdatePatient handles updating a patient profile (doctors and admins).
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	patch := &models.Patient{
		Gender:           models.Gender(req.Gender),
		BloodType:        req.BloodType,
		Allergies:        req.Allergies,
		MedicalHistory:   req.MedicalHistory,
		Insurance:        req.Insurance,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		patch.DateOfBirth = &dob
	}

	patient, err := h.Store.UpdatePatient(c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Patient updated: "+patient.MedicalRecordNumber, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient handles deleting a patient profile (admin). Rejected while
// the patient still has medical records or appointments.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	patientID := c.Param("id")

	patient, err := h.Store.GetPatient(patientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeletePatient(patient.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Patient deleted: "+patient.MedicalRecordNumber, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Patient deleted successfully", nil)
}
