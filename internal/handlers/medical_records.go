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

// MedicalRecordHandler handles medical record requests.
type MedicalRecordHandler struct {
	Store *store.Store
	Gate  *authz.Gate
	Audit audit.Recorder
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(st *store.Store, gate *authz.Gate, rec audit.Recorder) *MedicalRecordHandler {
	return &MedicalRecordHandler{Store: st, Gate: gate, Audit: rec}
}

// CreateMedicalRecordRequest represents the request body for creating a medical record.
type CreateMedicalRecordRequest struct {
	PatientID           string     `json:"patientId" binding:"required"`
	VisitDate           *time.Time `json:"visitDate"`
	Department          string     `json:"department"`
	Reason              string     `json:"reason"`
	Symptoms            string     `json:"symptoms"`
	ClinicalExamination string     `json:"clinicalExamination"`
	Diagnosis           string     `json:"diagnosis"`
	PrimaryDiagnosis    string     `json:"primaryDiagnosis"`
	Treatment           string     `json:"treatment"`
	ExamResult          string     `json:"examResult"`
	Notes               string     `json:"notes"`
	Status              string     `json:"status" binding:"omitempty,oneof=draft completed"`
}

// CreateMedicalRecord handles creating a medical record. The authenticated
// doctor is always the author; a record may be created as draft or directly
// as completed when the visit is already finalized.
func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if err := h.Gate.CanWriteClinical(principal); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req CreateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	record := models.MedicalRecord{
		PatientID:           req.PatientID,
		Department:          req.Department,
		Reason:              req.Reason,
		Symptoms:            req.Symptoms,
		ClinicalExamination: req.ClinicalExamination,
		Diagnosis:           req.Diagnosis,
		PrimaryDiagnosis:    req.PrimaryDiagnosis,
		Treatment:           req.Treatment,
		ExamResult:          req.ExamResult,
		Notes:               req.Notes,
		Status:              models.RecordStatus(req.Status),
	}
	if req.VisitDate != nil {
		record.VisitDate = *req.VisitDate
	}

	if err := h.Store.CreateMedicalRecord(principal.UserID, &record); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Medical record created for patient "+record.PatientID, principal.Email, "", c.ClientIP())
	utils.Created(c, "Medical record created successfully", record)
}

// GetMedicalRecordByID handles fetching a single record. Patients only see
// their own.
func (h *MedicalRecordHandler) GetMedicalRecordByID(c *gin.Context) {
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

	utils.Success(c, "Medical record fetched successfully", record)
}

// GetMedicalRecordsForPatient handles listing a patient's records.
func (h *MedicalRecordHandler) GetMedicalRecordsForPatient(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patientID := c.Param("patientId")
	if err := h.Gate.CanReadPatientScoped(principal, "medical record", patientID); err != nil {
		utils.RespondError(c, err)
		return
	}

	records, err := h.Store.ListMedicalRecordsByPatient(patientID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch medical records: "+err.Error())
		return
	}
	utils.Success(c, "Medical records fetched successfully", records)
}

// GetOwnMedicalRecords handles listing records scoped to the caller: a
// patient's own chart, or the records a doctor authored.
func (h *MedicalRecordHandler) GetOwnMedicalRecords(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	switch principal.Role {
	case models.RolePatient:
		patient, err := h.Store.PatientProfileForUser(principal.UserID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		records, err := h.Store.ListMedicalRecordsByPatient(patient.ID)
		if err != nil {
			utils.InternalServerError(c, "Failed to fetch medical records: "+err.Error())
			return
		}
		utils.Success(c, "Medical records fetched successfully", records)
	case models.RoleDoctor, models.RoleAdmin:
		records, err := h.Store.ListMedicalRecordsByDoctor(principal.UserID)
		if err != nil {
			utils.InternalServerError(c, "Failed to fetch medical records: "+err.Error())
			return
		}
		utils.Success(c, "Medical records fetched successfully", records)
	default:
		utils.Forbidden(c, "Unknown role")
	}
}

// UpdateMedicalRecordRequest represents the request body for updating a medical record.
// A status value routes the change through the record lifecycle.
type UpdateMedicalRecordRequest struct {
	VisitDate           *time.Time `json:"visitDate"`
	Department          string     `json:"department"`
	Reason              string     `json:"reason"`
	Symptoms            string     `json:"symptoms"`
	ClinicalExamination string     `json:"clinicalExamination"`
	Diagnosis           string     `json:"diagnosis"`
	PrimaryDiagnosis    string     `json:"primaryDiagnosis"`
	Treatment           string     `json:"treatment"`
	ExamResult          string     `json:"examResult"`
	Notes               string     `json:"notes"`
	Status              string     `json:"status" binding:"omitempty,oneof=draft completed archived"`
}

// UpdateMedicalRecord handles updating a record. Only the authoring doctor
// or an admin may modify it; archived records are read-only.
func (h *MedicalRecordHandler) UpdateMedicalRecord(c *gin.Context) {
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
	if err := h.Gate.CanWriteMedicalRecord(principal, record); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := &models.MedicalRecord{
		Department:          req.Department,
		Reason:              req.Reason,
		Symptoms:            req.Symptoms,
		ClinicalExamination: req.ClinicalExamination,
		Diagnosis:           req.Diagnosis,
		PrimaryDiagnosis:    req.PrimaryDiagnosis,
		Treatment:           req.Treatment,
		ExamResult:          req.ExamResult,
		Notes:               req.Notes,
		Status:              models.RecordStatus(req.Status),
	}
	if req.VisitDate != nil {
		patch.VisitDate = *req.VisitDate
	}

	updated, err := h.Store.UpdateMedicalRecord(record.ID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Medical record updated: "+updated.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Medical record updated successfully", updated)
}

// DeleteMedicalRecord handles deleting a record. Rejected while the record
// still has prescriptions or lab tests.
func (h *MedicalRecordHandler) DeleteMedicalRecord(c *gin.Context) {
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
	if err := h.Gate.CanWriteMedicalRecord(principal, record); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeleteMedicalRecord(record.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Medical record deleted: "+record.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Medical record deleted successfully", nil)
}
