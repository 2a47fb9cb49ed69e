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

// PrescriptionHandler handles prescription requests.
type PrescriptionHandler struct {
	Store *store.Store
	Gate  *authz.Gate
	Audit audit.Recorder
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(st *store.Store, gate *authz.Gate, rec audit.Recorder) *PrescriptionHandler {
	return &PrescriptionHandler{Store: st, Gate: gate, Audit: rec}
}

// CreatePrescriptionRequest represents the request body for creating a prescription.
type CreatePrescriptionRequest struct {
	MedicalRecordID string     `json:"medicalRecordId" binding:"required"`
	MedicationName  string     `json:"medicationName" binding:"required"`
	Dosage          string     `json:"dosage"`
	Quantity        int        `json:"quantity"`
	Unit            string     `json:"unit"`
	Frequency       string     `json:"frequency"`
	Duration        string     `json:"duration"`
	Route           string     `json:"route"`
	Instructions    string     `json:"instructions"`
	PrescribedDate  *time.Time `json:"prescribedDate"`
	ExpiryDate      *time.Time `json:"expiryDate"`
}

// CreatePrescription handles creating a prescription under a medical record.
// Only the record's authoring doctor or an admin may add to it.
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	parent, err := h.Store.GetMedicalRecord(req.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	prescription := models.Prescription{
		MedicalRecordID: req.MedicalRecordID,
		MedicationName:  req.MedicationName,
		Dosage:          req.Dosage,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Frequency:       req.Frequency,
		Duration:        req.Duration,
		Route:           req.Route,
		Instructions:    req.Instructions,
		ExpiryDate:      req.ExpiryDate,
	}
	if req.PrescribedDate != nil {
		prescription.PrescribedDate = *req.PrescribedDate
	}

	if err := h.Store.CreatePrescription(&prescription); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Prescription created: "+prescription.MedicationName, principal.Email, "", c.ClientIP())
	utils.Created(c, "Prescription created successfully", prescription)
}

// GetPrescriptionByID handles fetching a single prescription.
func (h *PrescriptionHandler) GetPrescriptionByID(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	prescription, err := h.Store.GetPrescription(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadPatientScoped(principal, "prescription", prescription.PatientID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Prescription fetched successfully", prescription)
}

// GetPrescriptionsForPatient handles listing a patient's prescriptions.
func (h *PrescriptionHandler) GetPrescriptionsForPatient(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patientID := c.Param("patientId")
	if err := h.Gate.CanReadPatientScoped(principal, "prescription", patientID); err != nil {
		utils.RespondError(c, err)
		return
	}

	prescriptions, err := h.Store.ListPrescriptionsByPatient(patientID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}
	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}

// GetPrescriptionsForRecord handles listing prescriptions under a record.
func (h *PrescriptionHandler) GetPrescriptionsForRecord(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	record, err := h.Store.GetMedicalRecord(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadMedicalRecord(principal, record); err != nil {
		utils.RespondError(c, err)
		return
	}

	prescriptions, err := h.Store.ListPrescriptionsByRecord(record.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}
	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}

// UpdatePrescriptionRequest represents the request body for updating a prescription.
// A status value routes the change through the prescription lifecycle.
type UpdatePrescriptionRequest struct {
	MedicationName string     `json:"medicationName"`
	Dosage         string     `json:"dosage"`
	Quantity       int        `json:"quantity"`
	Unit           string     `json:"unit"`
	Frequency      string     `json:"frequency"`
	Duration       string     `json:"duration"`
	Route          string     `json:"route"`
	Instructions   string     `json:"instructions"`
	ExpiryDate     *time.Time `json:"expiryDate"`
	Status         string     `json:"status" binding:"omitempty,oneof=active completed cancelled"`
}

// UpdatePrescription handles updating a prescription.
func (h *PrescriptionHandler) UpdatePrescription(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	prescription, err := h.Store.GetPrescription(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(prescription.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := &models.Prescription{
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Frequency:      req.Frequency,
		Duration:       req.Duration,
		Route:          req.Route,
		Instructions:   req.Instructions,
		ExpiryDate:     req.ExpiryDate,
		Status:         models.PrescriptionStatus(req.Status),
	}
	updated, err := h.Store.UpdatePrescription(prescription.ID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Prescription updated: "+updated.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Prescription updated successfully", updated)
}

// UpdatePrescriptionStatusRequest represents the request body for a status change.
type UpdatePrescriptionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active completed cancelled"`
}

// UpdatePrescriptionStatus handles moving a prescription along its
// lifecycle.
func (h *PrescriptionHandler) UpdatePrescriptionStatus(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	prescription, err := h.Store.GetPrescription(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(prescription.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdatePrescriptionStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.Store.TransitionPrescription(prescription.ID, models.PrescriptionStatus(req.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Prescription status changed to "+req.Status, principal.Email, "", c.ClientIP())
	utils.Success(c, "Prescription status updated successfully", updated)
}

// DeletePrescription handles deleting a prescription.
func (h *PrescriptionHandler) DeletePrescription(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	prescription, err := h.Store.GetPrescription(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(prescription.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeletePrescription(prescription.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Prescription deleted: "+prescription.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Prescription deleted successfully", nil)
}
