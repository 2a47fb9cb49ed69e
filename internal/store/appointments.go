package store

import (
	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/lifecycle"
	"clinic-ehr-server/internal/models"
)

// CreateAppointment inserts an appointment. DoctorID must reference a
// Doctor profile id, PatientID a Patient profile id; both are validated
// before the insert. Appointments always start pending.
func (s *Store) CreateAppointment(appointment *models.Appointment) error {
	if appointment.PatientID == "" {
		return errs.Validation("appointment", "patientId", "is required")
	}
	if appointment.DoctorID == "" {
		return errs.Validation("appointment", "doctorId", "is required")
	}
	if appointment.AppointmentDate.IsZero() {
		return errs.Validation("appointment", "appointmentDate", "is required")
	}
	if appointment.Status == "" {
		appointment.Status = lifecycle.InitialAppointmentStatus
	}
	if appointment.Status != lifecycle.InitialAppointmentStatus {
		return errs.Validation("appointment", "status", "appointments are always created pending")
	}
	if _, err := patientByID(s.db, appointment.PatientID); err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("appointment", "patientId", "referenced patient does not exist")
		}
		return err
	}
	if _, err := doctorByID(s.db, appointment.DoctorID); err != nil {
		if errs.IsNotFound(err) {
			return errs.Validation("appointment", "doctorId", "referenced doctor profile does not exist")
		}
		return err
	}
	return s.db.Create(appointment).Error
}

// GetAppointment returns an appointment with both profiles and their users.
func (s *Store) GetAppointment(id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.db.Preload("Patient").Preload("Patient.User").
		Preload("Doctor").Preload("Doctor.User").
		First(&appointment, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err, "appointment", id)
	}
	return &appointment, nil
}

// ListAppointmentsByPatient returns a patient's appointments, most recent
// first.
func (s *Store) ListAppointmentsByPatient(patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.Preload("Doctor").Preload("Doctor.User").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC").Find(&appointments).Error
	return appointments, err
}

// ListAppointmentsByDoctor returns a doctor profile's appointments, most
// recent first.
func (s *Store) ListAppointmentsByDoctor(doctorID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.Preload("Patient").Preload("Patient.User").
		Where("doctor_id = ?", doctorID).
		Order("appointment_date DESC").Find(&appointments).Error
	return appointments, err
}

// ListAppointments returns every appointment, most recent first.
func (s *Store) ListAppointments() ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.Preload("Patient").Preload("Patient.User").
		Preload("Doctor").Preload("Doctor.User").
		Order("appointment_date DESC").Find(&appointments).Error
	return appointments, err
}

// UpdateAppointment applies patch fields. Patient and doctor references are
// immutable; a status change in the patch is routed through the transition
// table.
func (s *Store) UpdateAppointment(id string, patch *models.Appointment) (*models.Appointment, error) {
	appointment, err := s.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if patch.PatientID != "" && patch.PatientID != appointment.PatientID {
		return nil, errs.Validation("appointment", "patientId", "appointments cannot move between patients")
	}
	if patch.DoctorID != "" && patch.DoctorID != appointment.DoctorID {
		return nil, errs.Validation("appointment", "doctorId", "appointments cannot move between doctors")
	}
	if !patch.AppointmentDate.IsZero() {
		appointment.AppointmentDate = patch.AppointmentDate
	}
	if patch.Reason != "" {
		appointment.Reason = patch.Reason
	}
	if patch.Notes != "" {
		appointment.Notes = patch.Notes
	}
	if patch.Status != "" && patch.Status != appointment.Status {
		if _, err := s.TransitionAppointment(id, patch.Status); err != nil {
			return nil, err
		}
		appointment.Status = patch.Status
	}
	err = s.db.Model(&models.Appointment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"appointment_date": appointment.AppointmentDate,
			"reason":           appointment.Reason,
			"notes":            appointment.Notes,
		}).Error
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// TransitionAppointment moves an appointment along its status table under an
// optimistic guard. Requesting the current status is a no-op success.
func (s *Store) TransitionAppointment(id string, to models.AppointmentStatus) (*models.Appointment, error) {
	appointment, err := s.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	noop, err := lifecycle.CheckAppointment(appointment.Status, to)
	if err != nil {
		return nil, err
	}
	if noop {
		return appointment, nil
	}
	res := s.db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, appointment.Status).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.Conflict("appointment", "status", "appointment was modified concurrently")
	}
	appointment.Status = to
	return appointment, nil
}

// DeleteAppointment removes an appointment.
func (s *Store) DeleteAppointment(id string) error {
	if _, err := s.GetAppointment(id); err != nil {
		return err
	}
	return s.db.Delete(&models.Appointment{}, "id = ?", id).Error
}
