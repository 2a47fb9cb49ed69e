package store

import (
	"errors"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"gorm.io/gorm"
)

// CreateUser inserts a user after checking email uniqueness. The password
// must already be hashed via User.SetPassword.
func (s *Store) CreateUser(user *models.User) error {
	if !user.Role.Valid() {
		return errs.Validation("user", "role", "must be admin, doctor or patient")
	}
	var existing models.User
	err := s.db.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return errs.Conflict("user", "email", user.Email+" is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(user).Error
}

// GetUser returns a user by id.
func (s *Store) GetUser(id string) (*models.User, error) {
	return userByID(s.db, id)
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", email)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("created_at DESC").Find(&users).Error
	return users, err
}

// UpdateUser applies non-empty fields of patch to the stored user. Role
// changes go through here only for explicit admin action; profile
// creation/deletion flips the role on its own.
func (s *Store) UpdateUser(id string, patch *models.User) (*models.User, error) {
	user, err := userByID(s.db, id)
	if err != nil {
		return nil, err
	}
	if patch.Email != "" && patch.Email != user.Email {
		var existing models.User
		err := s.db.Where("email = ? AND id <> ?", patch.Email, id).First(&existing).Error
		if err == nil {
			return nil, errs.Conflict("user", "email", patch.Email+" is already in use")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = patch.Email
	}
	if patch.FirstName != "" {
		user.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		user.LastName = patch.LastName
	}
	if patch.Phone != "" {
		user.Phone = patch.Phone
	}
	if patch.Address != "" {
		user.Address = patch.Address
	}
	if patch.Role != "" {
		if !patch.Role.Valid() {
			return nil, errs.Validation("user", "role", "must be admin, doctor or patient")
		}
		user.Role = patch.Role
	}
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user. Deletes are rejected with ConflictError while
// the user still owns a Patient or Doctor profile or has authored medical
// records, so clinical references can never dangle.
func (s *Store) DeleteUser(id string) error {
	if _, err := userByID(s.db, id); err != nil {
		return err
	}
	var patients int64
	if err := s.db.Model(&models.Patient{}).Where("user_id = ?", id).Count(&patients).Error; err != nil {
		return err
	}
	if patients > 0 {
		return errs.Conflict("user", "patientProfile", "user still owns a patient profile")
	}
	var doctors int64
	if err := s.db.Model(&models.Doctor{}).Where("user_id = ?", id).Count(&doctors).Error; err != nil {
		return err
	}
	if doctors > 0 {
		return errs.Conflict("user", "doctorProfile", "user still owns a doctor profile")
	}
	var records int64
	if err := s.db.Model(&models.MedicalRecord{}).Where("doctor_id = ?", id).Count(&records).Error; err != nil {
		return err
	}
	if records > 0 {
		return errs.Conflict("user", "medicalRecords", "user has authored medical records")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RefreshToken{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.UserPreference{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}
