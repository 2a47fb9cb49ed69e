package handlers

import (
	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
	"clinic-ehr-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related requests (typically admin operations).
type UserHandler struct {
	Store *store.Store
	Audit audit.Recorder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(st *store.Store, rec audit.Recorder) *UserHandler {
	return &UserHandler{Store: st, Audit: rec}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=patient doctor admin"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.Role(req.Role),
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

	h.Audit.Record(models.ActivityCreate, "User created: "+user.Email, actorEmail(c), "", c.ClientIP())
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all users (admin).
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Store.ListUsers()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitizedUsers[i] = u.Sanitize()
	}

	h.Audit.Record(models.ActivityView, "Viewed all users", actorEmail(c), "", c.ClientIP())
	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.Store.GetUser(c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
// Password changes go through a separate endpoint; role changes go through
// doctor profile creation and deletion.
type UpdateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	patch := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	user, err := h.Store.UpdateUser(c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityUpdate, "User updated: "+user.Email, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID (admin). Deletion is rejected
// while the user still owns a patient or doctor profile or authored records.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := h.Store.GetUser(userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.DeleteUser(userID); err != nil {
		utils.RespondError(c, err)
		return
	}

	h.Audit.Record(models.ActivityDelete, "User deleted: "+user.Email, actorEmail(c), "", c.ClientIP())
	utils.Success(c, "User deleted successfully", nil)
}

// GetDoctorUsers handles fetching all user accounts with the doctor role.
// Accessible to any authenticated user for appointment booking.
func (h *UserHandler) GetDoctorUsers(c *gin.Context) {
	var doctors []models.User
	if err := h.Store.DB().Where("role = ?", models.RoleDoctor).Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	sanitizedDoctors := make([]models.UserSanitized, len(doctors))
	for i, doctor := range doctors {
		sanitizedDoctors[i] = doctor.Sanitize()
	}

	utils.Success(c, "Doctors fetched successfully", sanitizedDoctors)
}

