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

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Store *store.Store
	Gate  *authz.Gate
	Audit audit.Recorder
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(st *store.Store, gate *authz.Gate, rec audit.Recorder) *AppointmentHandler {
	return &AppointmentHandler{Store: st, Gate: gate, Audit: rec}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
// DoctorID is the Doctor profile id. Patients omit patientId; it resolves to
// their own profile.
type CreateAppointmentRequest struct {
	PatientID       string    `json:"patientId"`
	DoctorID        string    `json:"doctorId" binding:"required"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

// CreateAppointment handles booking an appointment. New appointments always
// start pending.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID := req.PatientID
	if principal.Role == models.RolePatient {
		patient, err := h.Store.PatientProfileForUser(principal.UserID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if patientID != "" && patientID != patient.ID {
			utils.Forbidden(c, "Patients can only book appointments for themselves.")
			return
		}
		patientID = patient.ID
	}

	appointment := models.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	if err := h.Store.CreateAppointment(&appointment); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "Appointment booked for "+appointment.AppointmentDate.Format(time.RFC3339), principal.Email, "", c.ClientIP())
	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in
// user. Patients see their own, doctors see their schedule, admins see all.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointments []models.Appointment
	var err error

	switch principal.Role {
	case models.RolePatient:
		var patient *models.Patient
		patient, err = h.Store.PatientProfileForUser(principal.UserID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		appointments, err = h.Store.ListAppointmentsByPatient(patient.ID)
	case models.RoleDoctor:
		var doctor *models.Doctor
		doctor, err = h.Store.DoctorProfileForUser(principal.UserID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		appointments, err = h.Store.ListAppointmentsByDoctor(doctor.ID)
	case models.RoleAdmin:
		appointments, err = h.Store.ListAppointments()
	default:
		utils.Forbidden(c, "Unknown role")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointment, err := h.Store.GetAppointment(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadAppointment(principal, appointment); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for a status change.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

// UpdateAppointmentStatus handles confirming, completing or cancelling an
// appointment. Patients may only cancel their own.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointment, err := h.Store.GetAppointment(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	to := models.AppointmentStatus(req.Status)

	if err := h.Gate.CanTransitionAppointment(principal, appointment, to); err != nil {
		utils.RespondError(c, err)
		return
	}

	updated, err := h.Store.TransitionAppointment(appointment.ID, to)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Appointment status changed to "+req.Status, principal.Email, "", c.ClientIP())
	utils.Success(c, "Appointment status updated successfully", updated)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

// RescheduleAppointment handles moving an appointment to a new date. The
// involved doctor, the involved patient or an admin may reschedule.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appointment, err := h.Store.GetAppointment(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.Gate.CanReadAppointment(principal, appointment); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := &models.Appointment{
		AppointmentDate: req.AppointmentDate,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	updated, err := h.Store.UpdateAppointment(appointment.ID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Appointment rescheduled to "+req.AppointmentDate.Format(time.RFC3339), principal.Email, "", c.ClientIP())
	utils.Success(c, "Appointment rescheduled successfully", updated)
}

// DeleteAppointment handles deleting an appointment (admin).
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	appointment, err := h.Store.GetAppointment(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeleteAppointment(appointment.ID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "Appointment deleted: "+appointment.ID, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Appointment deleted successfully", nil)
}
