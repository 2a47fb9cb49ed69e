package store

import (
	"testing"
	"time"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(newTestDB(t))
}

func mustCreateUser(t *testing.T, s *Store, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Email: email, FirstName: "Test", LastName: "User", Role: role}
	if err := user.SetPassword("secret-password"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

func mustCreatePatient(t *testing.T, s *Store, userID string) *models.Patient {
	t.Helper()
	patient := &models.Patient{UserID: userID}
	if err := s.CreatePatient(patient); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	return patient
}

func mustCreateDoctor(t *testing.T, s *Store, userID, license string) *models.Doctor {
	t.Helper()
	doctor := &models.Doctor{UserID: userID, LicenseNumber: license, Specialization: "General"}
	if err := s.CreateDoctor(doctor); err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}
	return doctor
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "alice@clinic.test", models.RolePatient)

	dup := &models.User{Email: "alice@clinic.test", Role: models.RolePatient}
	dup.SetPassword("another-password")
	if err := s.CreateUser(dup); !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError on duplicate email, got %v", err)
	}
}

func TestPatientMRNGeneratedAndImmutable(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "bob@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, user.ID)

	if patient.MedicalRecordNumber == "" {
		t.Fatal("expected a medical record number to be generated")
	}

	_, err := s.UpdatePatient(patient.ID, &models.Patient{MedicalRecordNumber: "MRN-OVERRIDE"})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError on MRN change, got %v", err)
	}

	// Other fields remain updatable
	updated, err := s.UpdatePatient(patient.ID, &models.Patient{BloodType: "O+"})
	if err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if updated.BloodType != "O+" {
		t.Errorf("BloodType = %q, want O+", updated.BloodType)
	}
	if updated.MedicalRecordNumber != patient.MedicalRecordNumber {
		t.Errorf("MRN changed from %q to %q", patient.MedicalRecordNumber, updated.MedicalRecordNumber)
	}
}

func TestSecondPatientProfileRejected(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "carol@clinic.test", models.RolePatient)
	mustCreatePatient(t, s, user.ID)

	err := s.CreatePatient(&models.Patient{UserID: user.ID})
	if !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError on second profile, got %v", err)
	}
}

func TestDualProfileGate(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "dave@clinic.test", models.RolePatient)
	mustCreatePatient(t, s, user.ID)

	err := s.CreateDoctor(&models.Doctor{UserID: user.ID, LicenseNumber: "LIC-100"})
	if !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError for dual profile, got %v", err)
	}

	s.AllowDualProfiles = true
	if err := s.CreateDoctor(&models.Doctor{UserID: user.ID, LicenseNumber: "LIC-100"}); err != nil {
		t.Fatalf("dual profile should be allowed when enabled: %v", err)
	}
}

func TestDoctorPromotionAndDemotion(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "erin@clinic.test", models.RolePatient)
	doctor := mustCreateDoctor(t, s, user.ID, "LIC-200")

	reloaded, err := s.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if reloaded.Role != models.RoleDoctor {
		t.Errorf("role after profile creation = %s, want doctor", reloaded.Role)
	}

	if err := s.DeleteDoctor(doctor.ID); err != nil {
		t.Fatalf("DeleteDoctor: %v", err)
	}
	reloaded, err = s.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if reloaded.Role != models.RolePatient {
		t.Errorf("role after profile deletion = %s, want patient", reloaded.Role)
	}
}

func TestDeleteDoctorRejectedWithAppointments(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "pat@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "doc@clinic.test", models.RolePatient)
	doctor := mustCreateDoctor(t, s, doctorUser.ID, "LIC-300")

	appointment := &models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
	}
	if err := s.CreateAppointment(appointment); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	if err := s.DeleteDoctor(doctor.ID); !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError deleting doctor with appointments, got %v", err)
	}
	if err := s.DeletePatient(patient.ID); !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError deleting patient with appointments, got %v", err)
	}

	if err := s.DeleteAppointment(appointment.ID); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	if err := s.DeleteDoctor(doctor.ID); err != nil {
		t.Fatalf("DeleteDoctor after clearing appointments: %v", err)
	}
}

func TestMedicalRecordLifecycle(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p1@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d1@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-400")

	record := &models.MedicalRecord{PatientID: patient.ID, Reason: "checkup"}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}
	if record.Status != models.RecordDraft {
		t.Errorf("initial status = %s, want draft", record.Status)
	}
	if record.DoctorID != doctorUser.ID {
		t.Errorf("DoctorID = %s, want authoring user id %s", record.DoctorID, doctorUser.ID)
	}

	// Completing without a diagnosis is rejected
	_, err := s.UpdateMedicalRecord(record.ID, &models.MedicalRecord{Status: models.RecordCompleted})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError completing without diagnosis, got %v", err)
	}

	// Draft cannot be archived directly
	_, err = s.UpdateMedicalRecord(record.ID, &models.MedicalRecord{Status: models.RecordArchived})
	if !errs.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransitionError archiving a draft, got %v", err)
	}

	updated, err := s.UpdateMedicalRecord(record.ID, &models.MedicalRecord{
		Diagnosis: "Seasonal allergies",
		Status:    models.RecordCompleted,
	})
	if err != nil {
		t.Fatalf("completing record: %v", err)
	}
	if updated.Status != models.RecordCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}

	archived, err := s.UpdateMedicalRecord(record.ID, &models.MedicalRecord{Status: models.RecordArchived})
	if err != nil {
		t.Fatalf("archiving record: %v", err)
	}
	if archived.Status != models.RecordArchived {
		t.Errorf("status = %s, want archived", archived.Status)
	}

	// Archived records are read-only
	_, err = s.UpdateMedicalRecord(record.ID, &models.MedicalRecord{Notes: "late edit"})
	if !errs.IsForbidden(err) {
		t.Fatalf("expected ForbiddenError editing archived record, got %v", err)
	}
}

func TestRecordCreatedCompletedRequiresDiagnosis(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p2@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d2@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-500")

	err := s.CreateMedicalRecord(doctorUser.ID, &models.MedicalRecord{
		PatientID: patient.ID,
		Status:    models.RecordCompleted,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError for completed record without diagnosis, got %v", err)
	}

	record := &models.MedicalRecord{
		PatientID: patient.ID,
		Status:    models.RecordCompleted,
		Diagnosis: "Hypertension",
	}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord completed: %v", err)
	}

	err = s.CreateMedicalRecord(doctorUser.ID, &models.MedicalRecord{
		PatientID: patient.ID,
		Status:    models.RecordArchived,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError creating archived record, got %v", err)
	}
}

func TestPrescriptionCopiesParentPatient(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p3@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d3@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-600")

	record := &models.MedicalRecord{PatientID: patient.ID}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}

	prescription := &models.Prescription{
		MedicalRecordID: record.ID,
		MedicationName:  "Amoxicillin",
		PatientID:       "ignored-value",
	}
	if err := s.CreatePrescription(prescription); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	if prescription.PatientID != patient.ID {
		t.Errorf("PatientID = %s, want parent's %s", prescription.PatientID, patient.ID)
	}
	if prescription.Status != models.PrescriptionActive {
		t.Errorf("status = %s, want active", prescription.Status)
	}

	// Cannot be created in a terminal status
	err := s.CreatePrescription(&models.Prescription{
		MedicalRecordID: record.ID,
		MedicationName:  "Ibuprofen",
		Status:          models.PrescriptionCompleted,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError for non-active create, got %v", err)
	}

	// Record deletion is blocked while children exist
	if err := s.DeleteMedicalRecord(record.ID); !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError deleting record with prescriptions, got %v", err)
	}
}

func TestPrescriptionTransitions(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p4@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d4@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-700")

	record := &models.MedicalRecord{PatientID: patient.ID}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}
	prescription := &models.Prescription{MedicalRecordID: record.ID, MedicationName: "Lisinopril"}
	if err := s.CreatePrescription(prescription); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	cancelled, err := s.TransitionPrescription(prescription.ID, models.PrescriptionCancelled)
	if err != nil {
		t.Fatalf("TransitionPrescription: %v", err)
	}
	if cancelled.Status != models.PrescriptionCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	// Terminal status stays put
	_, err = s.TransitionPrescription(prescription.ID, models.PrescriptionCompleted)
	if !errs.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransitionError from cancelled, got %v", err)
	}
	reloaded, err := s.GetPrescription(prescription.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if reloaded.Status != models.PrescriptionCancelled {
		t.Errorf("failed transition mutated status to %s", reloaded.Status)
	}

	// Same-status request is a no-op success
	if _, err := s.TransitionPrescription(prescription.ID, models.PrescriptionCancelled); err != nil {
		t.Fatalf("no-op transition should succeed: %v", err)
	}
}

func TestLabTestResultFlow(t *testing.T) {
	fixed := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	s := NewWithClock(newTestDB(t), func() time.Time { return fixed })
	patientUser := mustCreateUser(t, s, "p5@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d5@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-800")

	record := &models.MedicalRecord{PatientID: patient.ID}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}

	labTest := &models.LabTest{MedicalRecordID: record.ID, TestName: "CBC"}
	if err := s.CreateLabTest(labTest); err != nil {
		t.Fatalf("CreateLabTest: %v", err)
	}
	if labTest.Status != models.LabTestPending {
		t.Errorf("status = %s, want pending", labTest.Status)
	}
	if labTest.PatientID != patient.ID {
		t.Errorf("PatientID = %s, want %s", labTest.PatientID, patient.ID)
	}
	if !labTest.OrderedDate.Equal(fixed) {
		t.Errorf("OrderedDate = %v, want clock time %v", labTest.OrderedDate, fixed)
	}

	// Completing without a result value is rejected
	_, err := s.TransitionLabTest(labTest.ID, models.LabTestCompleted, nil, nil)
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError without result value, got %v", err)
	}
	reloaded, _ := s.GetLabTest(labTest.ID)
	if reloaded.Status != models.LabTestPending {
		t.Errorf("failed transition mutated status to %s", reloaded.Status)
	}

	value := "4.8 x10^9/L"
	completed, err := s.TransitionLabTest(labTest.ID, models.LabTestCompleted, &value, nil)
	if err != nil {
		t.Fatalf("TransitionLabTest: %v", err)
	}
	if completed.Status != models.LabTestCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}
	if completed.ResultValue == nil || *completed.ResultValue != value {
		t.Errorf("ResultValue = %v, want %q", completed.ResultValue, value)
	}
	if completed.ResultDate == nil || !completed.ResultDate.Equal(fixed) {
		t.Errorf("ResultDate = %v, want clock time %v", completed.ResultDate, fixed)
	}

	// Result fields cannot be supplied on create
	err = s.CreateLabTest(&models.LabTest{
		MedicalRecordID: record.ID,
		TestName:        "Lipid panel",
		ResultValue:     &value,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError for result on create, got %v", err)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p6@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d6@clinic.test", models.RolePatient)
	doctor := mustCreateDoctor(t, s, doctorUser.ID, "LIC-900")

	appointment := &models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: time.Now().Add(48 * time.Hour),
	}
	if err := s.CreateAppointment(appointment); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if appointment.Status != models.AppointmentPending {
		t.Errorf("status = %s, want pending", appointment.Status)
	}

	// Pending cannot jump straight to completed
	_, err := s.TransitionAppointment(appointment.ID, models.AppointmentCompleted)
	if !errs.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransitionError pending->completed, got %v", err)
	}

	if _, err := s.TransitionAppointment(appointment.ID, models.AppointmentConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	completed, err := s.TransitionAppointment(appointment.ID, models.AppointmentCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.AppointmentCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}

	// Dangling references are rejected at create time
	err = s.CreateAppointment(&models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        "no-such-doctor",
		AppointmentDate: time.Now().Add(time.Hour),
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown doctor, got %v", err)
	}
}

func TestRepairDenormalizedPatientIDs(t *testing.T) {
	s := newTestStore(t)
	patientUser := mustCreateUser(t, s, "p7@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, patientUser.ID)
	doctorUser := mustCreateUser(t, s, "d7@clinic.test", models.RolePatient)
	mustCreateDoctor(t, s, doctorUser.ID, "LIC-1000")

	record := &models.MedicalRecord{PatientID: patient.ID}
	if err := s.CreateMedicalRecord(doctorUser.ID, record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}
	prescription := &models.Prescription{MedicalRecordID: record.ID, MedicationName: "Metformin"}
	if err := s.CreatePrescription(prescription); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	labTest := &models.LabTest{MedicalRecordID: record.ID, TestName: "HbA1c"}
	if err := s.CreateLabTest(labTest); err != nil {
		t.Fatalf("CreateLabTest: %v", err)
	}

	// Simulate out-of-band drift
	if err := s.DB().Model(&models.Prescription{}).Where("id = ?", prescription.ID).
		UpdateColumn("patient_id", "drifted").Error; err != nil {
		t.Fatalf("corrupting prescription: %v", err)
	}

	report, err := s.RepairDenormalizedPatientIDs()
	if err != nil {
		t.Fatalf("RepairDenormalizedPatientIDs: %v", err)
	}
	if report.PrescriptionsChecked != 1 || report.PrescriptionsRepaired != 1 {
		t.Errorf("prescriptions checked/repaired = %d/%d, want 1/1",
			report.PrescriptionsChecked, report.PrescriptionsRepaired)
	}
	if report.LabTestsChecked != 1 || report.LabTestsRepaired != 0 {
		t.Errorf("lab tests checked/repaired = %d/%d, want 1/0",
			report.LabTestsChecked, report.LabTestsRepaired)
	}

	reloaded, err := s.GetPrescription(prescription.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if reloaded.PatientID != patient.ID {
		t.Errorf("PatientID after repair = %s, want %s", reloaded.PatientID, patient.ID)
	}
}

func TestDeleteUserRejectedWithProfiles(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "p8@clinic.test", models.RolePatient)
	patient := mustCreatePatient(t, s, user.ID)

	if err := s.DeleteUser(user.ID); !errs.IsConflict(err) {
		t.Fatalf("expected ConflictError deleting user with a profile, got %v", err)
	}

	if err := s.DeletePatient(patient.ID); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}
	if err := s.DeleteUser(user.ID); err != nil {
		t.Fatalf("DeleteUser after removing profile: %v", err)
	}
	if _, err := s.GetUser(user.ID); !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestDoctorUserIDConversions(t *testing.T) {
	s := newTestStore(t)
	doctorUser := mustCreateUser(t, s, "d9@clinic.test", models.RolePatient)
	doctor := mustCreateDoctor(t, s, doctorUser.ID, "LIC-1100")

	profile, err := s.DoctorProfileForUser(doctorUser.ID)
	if err != nil {
		t.Fatalf("DoctorProfileForUser: %v", err)
	}
	if profile.ID != doctor.ID {
		t.Errorf("profile id = %s, want %s", profile.ID, doctor.ID)
	}

	userID, err := s.UserForDoctor(doctor.ID)
	if err != nil {
		t.Fatalf("UserForDoctor: %v", err)
	}
	if userID != doctorUser.ID {
		t.Errorf("user id = %s, want %s", userID, doctorUser.ID)
	}
}
