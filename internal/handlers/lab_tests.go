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

// LabTestHandler handles lab test requests.
type LabTestHandler struct {
	Store *store.Store
	Gate  *authz.Gate
	Audit audit.Recorder
}

// NewLabTestHandler creates a new LabTestHandler.
func NewLabTestHandler(st *store.Store, gate *authz.Gate, rec audit.Recorder) *LabTestHandler {
	return &LabTestHandler{Store: st, Gate: gate, Audit: rec}
}

// CreateLabTestRequest represents the request body for ordering a lab test.
// Tests are always ordered pending; results arrive through the status
// endpoint.
type CreateLabTestRequest struct {
	MedicalRecordID string     `json:"medicalRecordId" binding:"required"`
	TestName        string     `json:"testName" binding:"required"`
	TestCode        string     `json:"testCode"`
	OrderedDate     *time.Time `json:"orderedDate"`
	NormalRange     string     `json:"normalRange"`
	Unit            string     `json:"unit"`
	Notes           string     `json:"notes"`
}

// CreateLabTest handles ordering a lab test under a medical record.
func (h *LabTestHandler) CreateLabTest(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateLabTestRequest
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

	labTest := models.LabTest{
		MedicalRecordID: req.MedicalRecordID,
		TestName:        req.TestName,
		TestCode:        req.TestCode,
		NormalRange:     req.NormalRange,
		Unit:            req.Unit,
		Notes:           req.Notes,
	}
	if req.OrderedDate != nil {
		labTest.OrderedDate = *req.OrderedDate
	}

	if err := h.Store.CreateLabTest(&labTest); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Lab test ordered: "+labTest.TestName, principal.Email, "", c.ClientIP())
	utils.Created(c, "Lab test created successfully", labTest)
}

// GetLabTestByID handles fetching a single lab test.
func (h *LabTestHandler) GetLabTestByID(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	labTest, err := h.Store.GetLabTest(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadPatientScoped(principal, "lab test", labTest.PatientID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Lab test fetched successfully", labTest)
}

// GetLabTestsForPatient handles listing a patient's lab tests.
func (h *LabTestHandler) GetLabTestsForPatient(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patientID := c.Param("patientId")
	if err := h.Gate.CanReadPatientScoped(principal, "lab test", patientID); err != nil {
		utils.RespondError(c, err)
		return
	}

	labTests, err := h.Store.ListLabTestsByPatient(patientID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch lab tests: "+err.Error())
		return
	}
	utils.Success(c, "Lab tests fetched successfully", labTests)
}

// GetLabTestsForRecord handles listing lab tests under a record.
func (h *LabTestHandler) GetLabTestsForRecord(c *gin.Context) {
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

	labTests, err := h.Store.ListLabTestsByRecord(record.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch lab tests: "+err.Error())
		return
	}
	utils.Success(c, "Lab tests fetched successfully", labTests)
}

// UpdateLabTestRequest represents the request body for updating a lab test's
// descriptive fields.
type UpdateLabTestRequest struct {
	TestName    string `json:"testName"`
	TestCode    string `json:"testCode"`
	NormalRange string `json:"normalRange"`
	Unit        string `json:"unit"`
	Notes       string `json:"notes"`
}

// UpdateLabTest handles updating a lab test's descriptive fields. Status and
// results only change through UpdateLabTestStatus.
func (h *LabTestHandler) UpdateLabTest(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	labTest, err := h.Store.GetLabTest(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(labTest.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdateLabTestRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := &models.LabTest{
		TestName:    req.TestName,
		TestCode:    req.TestCode,
		NormalRange: req.NormalRange,
		Unit:        req.Unit,
		Notes:       req.Notes,
	}
	updated, err := h.Store.UpdateLabTest(labTest.ID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Lab test updated: "+updated.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Lab test updated successfully", updated)
}

// UpdateLabTestStatusRequest represents the request body for recording a result.
// Leaving pending requires a result value; the result date defaults to now.
type UpdateLabTestStatusRequest struct {
	Status      string     `json:"status" binding:"required,oneof=pending completed abnormal"`
	ResultValue string     `json:"resultValue"`
	ResultDate  *time.Time `json:"resultDate"`
}

// UpdateLabTestStatus handles recording a lab test result.
func (h *LabTestHandler) UpdateLabTestStatus(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	labTest, err := h.Store.GetLabTest(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(labTest.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdateLabTestStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var resultValue *string
	if req.ResultValue != "" {
		resultValue = &req.ResultValue
	}
	updated, err := h.Store.TransitionLabTest(labTest.ID, models.LabTestStatus(req.Status), resultValue, req.ResultDate)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Lab test result recorded: "+updated.TestName, principal.Email, "", c.ClientIP())
	utils.Success(c, "Lab test status updated successfully", updated)
}

// DeleteLabTest handles deleting a lab test.
func (h *LabTestHandler) DeleteLabTest(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	labTest, err := h.Store.GetLabTest(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	parent, err := h.Store.GetMedicalRecord(labTest.MedicalRecordID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanWriteRecordChild(principal, parent); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeleteLabTest(labTest.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Lab test deleted: "+labTest.ID, principal.Email, "", c.ClientIP())
	utils.Success(c, "Lab test deleted successfully", nil)
}
