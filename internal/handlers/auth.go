package handlers

import (
	"time"

	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/config"
	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Store *store.Store
	Cfg   *config.Config
	Audit audit.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, cfg *config.Config, rec audit.Recorder) *AuthHandler {
	return &AuthHandler{Store: st, Cfg: cfg, Audit: rec}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Register handles user registration. Public registration always creates a
// patient account; doctor and admin accounts come from the admin surface.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.RolePatient,
		Phone:     req.Phone,
		Address:   req.Address,
	}

	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.Store.CreateUser(&user); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityCreate, "User registered", user.Email, "", c.ClientIP())
	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(req.Email)
	if err != nil {
		if errs.IsNotFound(err) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	accessToken, refreshTokenString, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}

	// Store refresh token in DB
	refreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.Store.DB().Create(&refreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return
	}

	// Set refresh token as HTTP-only cookie
	c.SetCookie(
		"refresh_token",
		refreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	h.Audit.Record(models.ActivityLogin, "User logged in", user.Email, "", c.ClientIP())
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		User:         user.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles refreshing an access token using a refresh token.
// The token is rotated: the presented one is revoked and a new one issued.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// Prefer the HTTP-only cookie, fall back to the request body
	refreshTokenString, err := c.Cookie("refresh_token")
	if err != nil || refreshTokenString == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		refreshTokenString = req.RefreshToken
	}

	claims, err := utils.ValidateToken(refreshTokenString, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token: "+err.Error())
		return
	}

	var storedToken models.RefreshToken
	err = h.Store.DB().
		Where("token = ? AND user_id = ?", refreshTokenString, claims.UserID).
		First(&storedToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.InternalServerError(c, "Database error checking refresh token: "+err.Error())
		}
		return
	}
	if !storedToken.Usable(time.Now()) {
		utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		return
	}

	user, err := h.Store.GetUser(claims.UserID)
	if err != nil {
		utils.InternalServerError(c, "Failed to find user associated with token: "+err.Error())
		return
	}

	storedToken.IsRevoked = true
	h.Store.DB().Save(&storedToken)

	newAccessToken, newRefreshTokenString, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate new tokens: "+err.Error())
		return
	}

	newRefreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     newRefreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
		IsRevoked: false,
	}
	if err := h.Store.DB().Create(&newRefreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store new refresh token: "+err.Error())
		return
	}

	c.SetCookie(
		"refresh_token",
		newRefreshTokenString,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshTokenString,
	})
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout handles user logout by revoking the presented refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshTokenString, _ := c.Cookie("refresh_token")
	if refreshTokenString == "" {
		var req LogoutRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshTokenString = req.RefreshToken
		}
	}
	if refreshTokenString == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	var storedToken models.RefreshToken
	err := h.Store.DB().
		Where("token = ? AND is_revoked = ?", refreshTokenString, false).
		First(&storedToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Already revoked or unknown, still a successful logout
			utils.Success(c, "Logout successful", nil)
		} else {
			utils.InternalServerError(c, "Database error during logout: "+err.Error())
		}
		return
	}

	storedToken.IsRevoked = true
	storedToken.ExpiresAt = time.Now()
	if err := h.Store.DB().Save(&storedToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	c.SetCookie("refresh_token", "", -1, "/", "", h.Cfg.Environment != "development", true)

	if email, ok := c.Get("userEmail"); ok {
		if emailStr, ok := email.(string); ok {
			h.Audit.Record(models.ActivityLogout, "User logged out", emailStr, "", c.ClientIP())
		}
	}
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.Store.GetUser(userID.(string))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateProfile handles updating the currently authenticated user's profile.
// Email and role cannot be changed here.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	patch := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	user, err := h.Store.UpdateUser(userID.(string), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "Profile updated", user.Email, "", c.ClientIP())
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}
