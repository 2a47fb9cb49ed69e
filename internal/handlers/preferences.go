package handlers

import (
	"errors"

	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PreferenceHandler handles per-user preference requests.
type PreferenceHandler struct {
	Store *store.Store
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(st *store.Store) *PreferenceHandler {
	return &PreferenceHandler{Store: st}
}

// getOrCreate loads the user's preference row, inserting the defaults on
// first access.
func (h *PreferenceHandler) getOrCreate(userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := h.Store.DB().First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserPreference{
			UserID:             userID,
			Theme:              "light",
			Language:           "en",
			EmailNotifications: true,
			SMSNotifications:   true,
			BackupFrequency:    "daily",
		}
		if err := h.Store.DB().Create(&pref).Error; err != nil {
			return nil, err
		}
		return &pref, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetPreferences handles fetching the authenticated user's preferences.
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	pref, err := h.getOrCreate(userID.(string))
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch preferences: "+err.Error())
		return
	}
	utils.Success(c, "Preferences fetched successfully", pref)
}

// UpdatePreferencesRequest represents the request body for updating preferences.
type UpdatePreferencesRequest struct {
	Theme              string `json:"theme" binding:"omitempty,oneof=light dark"`
	Language           string `json:"language"`
	EmailNotifications *bool  `json:"emailNotifications"`
	SMSNotifications   *bool  `json:"smsNotifications"`
	AutoBackup         *bool  `json:"autoBackup"`
	BackupFrequency    string `json:"backupFrequency" binding:"omitempty,oneof=hourly daily weekly monthly"`
}

// UpdatePreferences handles updating the authenticated user's preferences.
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdatePreferencesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pref, err := h.getOrCreate(userID.(string))
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch preferences: "+err.Error())
		return
	}

	if req.Theme != "" {
		pref.Theme = req.Theme
	}
	if req.Language != "" {
		pref.Language = req.Language
	}
	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		pref.SMSNotifications = *req.SMSNotifications
	}
	if req.AutoBackup != nil {
		pref.AutoBackup = *req.AutoBackup
	}
	if req.BackupFrequency != "" {
		pref.BackupFrequency = req.BackupFrequency
	}

	if err := h.Store.DB().Save(pref).Error; err != nil {
		utils.InternalServerError(c, "Failed to update preferences: "+err.Error())
		return
	}
	utils.Success(c, "Preferences updated successfully", pref)
}
