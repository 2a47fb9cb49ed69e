package handlers

import (
	"strconv"
	"time"

	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/config"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/reports"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles the admin dashboard surface: statistics, reports,
// audit log access, system settings and consistency repair.
type AdminHandler struct {
	Store    *store.Store
	Reports  *reports.Engine
	Audit    *audit.Log
	Settings *config.Settings
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(st *store.Store, eng *reports.Engine, log *audit.Log, settings *config.Settings) *AdminHandler {
	return &AdminHandler{Store: st, Reports: eng, Audit: log, Settings: settings}
}

// GetStats handles fetching the dashboard aggregates.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.Reports.GetStats(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to compute statistics: "+err.Error())
		return
	}
	h.Audit.Record(models.ActivityReport, "Dashboard statistics viewed", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Statistics fetched successfully", stats)
}

// GetReport handles generating a report projection. Supported types:
// overview, users, patients, medical-records, prescriptions, lab-tests.
// Optional from/to query parameters (YYYY-MM-DD) bound the creation date.
func (h *AdminHandler) GetReport(c *gin.Context) {
	reportType := c.Query("type")

	var from, to *time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			utils.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = &parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			utils.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		// Include the whole end day
		end := parsed.AddDate(0, 0, 1).Add(-time.Second)
		to = &end
	}

	rows, err := h.Reports.GetReport(reportType, from, to)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityReport, "Report generated: "+reportType, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Report generated successfully", rows)
}

// GetActivities handles listing audit log entries, newest first. Supports
// limit and offset query parameters.
func (h *AdminHandler) GetActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	activities, err := h.Audit.List(limit, offset)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch activities: "+err.Error())
		return
	}
	utils.Success(c, "Activities fetched successfully", activities)
}

// ClearActivities handles wiping the audit log.
func (h *AdminHandler) ClearActivities(c *gin.Context) {
	if err := h.Audit.Clear(); err != nil {
		utils.InternalServerError(c, "Failed to clear activities: "+err.Error())
		return
	}
	h.Audit.Record(models.ActivityDelete, "Audit log cleared", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Activities cleared successfully", nil)
}

// GetSettings handles fetching the system settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	h.Audit.Record(models.ActivityView, "Viewed system settings", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Settings fetched successfully", h.Settings.Get())
}

// UpdateSettingsRequest represents the request body for updating system
// settings. Booleans are pointers so an omitted field leaves the stored
// value untouched.
type UpdateSettingsRequest struct {
	AppName            string `json:"appName"`
	AppVersion         string `json:"appVersion"`
	MaintenanceMode    *bool  `json:"maintenanceMode"`
	MaxUploadSizeMB    int    `json:"maxUploadSize"`
	SessionTimeoutMin  int    `json:"sessionTimeout"`
	EmailNotifications *bool  `json:"emailNotifications"`
	SMSNotifications   *bool  `json:"smsNotifications"`
	BackupEnabled      *bool  `json:"backupEnabled"`
	BackupFrequency    string `json:"backupFrequency" binding:"omitempty,oneof=hourly daily weekly monthly"`
	Theme              string `json:"theme" binding:"omitempty,oneof=light dark"`
	Language           string `json:"language"`
}

// UpdateSettings handles updating system settings. The row is persisted and
// the in-memory copy refreshed atomically.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	current := h.Settings.Get()
	if req.AppName != "" {
		current.AppName = req.AppName
	}
	if req.AppVersion != "" {
		current.AppVersion = req.AppVersion
	}
	if req.MaintenanceMode != nil {
		current.MaintenanceMode = *req.MaintenanceMode
	}
	if req.MaxUploadSizeMB > 0 {
		current.MaxUploadSizeMB = req.MaxUploadSizeMB
	}
	if req.SessionTimeoutMin > 0 {
		current.SessionTimeoutMin = req.SessionTimeoutMin
	}
	if req.EmailNotifications != nil {
		current.EmailNotifications = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		current.SMSNotifications = *req.SMSNotifications
	}
	if req.BackupEnabled != nil {
		current.BackupEnabled = *req.BackupEnabled
	}
	if req.BackupFrequency != "" {
		current.BackupFrequency = req.BackupFrequency
	}
	if req.Theme != "" {
		current.Theme = req.Theme
	}
	if req.Language != "" {
		current.Language = req.Language
	}

	updated, err := h.Settings.Update(current)
	if err != nil {
		utils.InternalServerError(c, "Failed to update settings: "+err.Error())
		return
	}

	h.Audit.Record(models.ActivitySettings, "System settings updated", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Settings updated successfully", updated)
}

// RepairConsistency handles the denormalized patient id consistency pass.
func (h *AdminHandler) RepairConsistency(c *gin.Context) {
	report, err := h.Store.RepairDenormalizedPatientIDs()
	if err != nil {
		utils.InternalServerError(c, "Consistency repair failed: "+err.Error())
		return
	}
	h.Audit.Record(models.ActivityUpdate, "Consistency repair executed", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Consistency repair completed", report)
}
