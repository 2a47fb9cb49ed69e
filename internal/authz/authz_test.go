package authz

import (
	"testing"
	"time"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	store    *store.Store
	gate     *Gate
	patient1 *models.Patient
	patient2 *models.Patient
	doctor1  *models.Doctor
	doctor2  *models.Doctor

	patientUser1 *models.User
	patientUser2 *models.User
	doctorUser1  *models.User
	doctorUser2  *models.User
	admin        *models.User

	record      *models.MedicalRecord
	appointment *models.Appointment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	st := store.New(db)
	f := &fixture{store: st, gate: NewGate(st)}

	newUser := func(email string, role models.Role) *models.User {
		u := &models.User{Email: email, Role: role}
		u.SetPassword("secret-password")
		if err := st.CreateUser(u); err != nil {
			t.Fatalf("CreateUser(%s): %v", email, err)
		}
		return u
	}
	f.patientUser1 = newUser("patient1@clinic.test", models.RolePatient)
	f.patientUser2 = newUser("patient2@clinic.test", models.RolePatient)
	f.doctorUser1 = newUser("doctor1@clinic.test", models.RolePatient)
	f.doctorUser2 = newUser("doctor2@clinic.test", models.RolePatient)
	f.admin = newUser("admin@clinic.test", models.RoleAdmin)

	f.patient1 = &models.Patient{UserID: f.patientUser1.ID}
	f.patient2 = &models.Patient{UserID: f.patientUser2.ID}
	for _, p := range []*models.Patient{f.patient1, f.patient2} {
		if err := st.CreatePatient(p); err != nil {
			t.Fatalf("CreatePatient: %v", err)
		}
	}

	f.doctor1 = &models.Doctor{UserID: f.doctorUser1.ID, LicenseNumber: "LIC-A"}
	f.doctor2 = &models.Doctor{UserID: f.doctorUser2.ID, LicenseNumber: "LIC-B"}
	for _, d := range []*models.Doctor{f.doctor1, f.doctor2} {
		if err := st.CreateDoctor(d); err != nil {
			t.Fatalf("CreateDoctor: %v", err)
		}
	}
	// CreateDoctor promotes the backing user's role in the database only;
	// reload the structs so principals carry the promoted role.
	for _, u := range []**models.User{&f.doctorUser1, &f.doctorUser2} {
		reloaded, err := st.GetUser((*u).ID)
		if err != nil {
			t.Fatalf("GetUser after CreateDoctor: %v", err)
		}
		*u = reloaded
	}

	f.record = &models.MedicalRecord{PatientID: f.patient1.ID}
	if err := st.CreateMedicalRecord(f.doctorUser1.ID, f.record); err != nil {
		t.Fatalf("CreateMedicalRecord: %v", err)
	}

	f.appointment = &models.Appointment{
		PatientID:       f.patient1.ID,
		DoctorID:        f.doctor1.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
	}
	if err := st.CreateAppointment(f.appointment); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	return f
}

func principalFor(u *models.User) Principal {
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func TestPatientCannotSeeForeignRecord(t *testing.T) {
	f := newFixture(t)

	// The owning patient reads their own record
	if err := f.gate.CanReadMedicalRecord(principalFor(f.patientUser1), f.record); err != nil {
		t.Errorf("owner read should pass: %v", err)
	}

	// Another patient gets NotFound, not Forbidden, to avoid enumeration
	err := f.gate.CanReadMedicalRecord(principalFor(f.patientUser2), f.record)
	if !errs.IsNotFound(err) {
		t.Errorf("foreign patient read: expected NotFoundError, got %v", err)
	}

	// Any doctor may read
	if err := f.gate.CanReadMedicalRecord(principalFor(f.doctorUser2), f.record); err != nil {
		t.Errorf("doctor read should pass: %v", err)
	}
}

func TestOnlyAuthorOrAdminWritesRecord(t *testing.T) {
	f := newFixture(t)

	if err := f.gate.CanWriteMedicalRecord(principalFor(f.doctorUser1), f.record); err != nil {
		t.Errorf("authoring doctor write should pass: %v", err)
	}
	if err := f.gate.CanWriteMedicalRecord(principalFor(f.admin), f.record); err != nil {
		t.Errorf("admin write should pass: %v", err)
	}

	err := f.gate.CanWriteMedicalRecord(principalFor(f.doctorUser2), f.record)
	if !errs.IsForbidden(err) {
		t.Errorf("non-author doctor write: expected ForbiddenError, got %v", err)
	}
	err = f.gate.CanWriteMedicalRecord(principalFor(f.patientUser1), f.record)
	if !errs.IsForbidden(err) {
		t.Errorf("patient write: expected ForbiddenError, got %v", err)
	}
}

func TestAppointmentAccess(t *testing.T) {
	f := newFixture(t)

	if err := f.gate.CanReadAppointment(principalFor(f.patientUser1), f.appointment); err != nil {
		t.Errorf("involved patient read should pass: %v", err)
	}
	if err := f.gate.CanReadAppointment(principalFor(f.doctorUser1), f.appointment); err != nil {
		t.Errorf("involved doctor read should pass: %v", err)
	}

	err := f.gate.CanReadAppointment(principalFor(f.patientUser2), f.appointment)
	if !errs.IsNotFound(err) {
		t.Errorf("foreign patient read: expected NotFoundError, got %v", err)
	}
	err = f.gate.CanReadAppointment(principalFor(f.doctorUser2), f.appointment)
	if !errs.IsForbidden(err) {
		t.Errorf("uninvolved doctor read: expected ForbiddenError, got %v", err)
	}
}

func TestPatientMayOnlyCancel(t *testing.T) {
	f := newFixture(t)
	p := principalFor(f.patientUser1)

	if err := f.gate.CanTransitionAppointment(p, f.appointment, models.AppointmentCancelled); err != nil {
		t.Errorf("patient cancelling own appointment should pass: %v", err)
	}

	err := f.gate.CanTransitionAppointment(p, f.appointment, models.AppointmentConfirmed)
	if !errs.IsForbidden(err) {
		t.Errorf("patient confirming: expected ForbiddenError, got %v", err)
	}

	err = f.gate.CanTransitionAppointment(principalFor(f.patientUser2), f.appointment, models.AppointmentCancelled)
	if !errs.IsNotFound(err) {
		t.Errorf("foreign patient cancel: expected NotFoundError, got %v", err)
	}

	if err := f.gate.CanTransitionAppointment(principalFor(f.doctorUser1), f.appointment, models.AppointmentConfirmed); err != nil {
		t.Errorf("involved doctor confirm should pass: %v", err)
	}
}

func TestAdminSurfaces(t *testing.T) {
	f := newFixture(t)

	if err := f.gate.CanManageUsers(principalFor(f.admin)); err != nil {
		t.Errorf("admin should manage users: %v", err)
	}
	if err := f.gate.CanManageUsers(principalFor(f.doctorUser1)); !errs.IsForbidden(err) {
		t.Errorf("doctor managing users: expected ForbiddenError, got %v", err)
	}

	if err := f.gate.CanListPatients(principalFor(f.doctorUser1)); err != nil {
		t.Errorf("doctor should list patients: %v", err)
	}
	if err := f.gate.CanListPatients(principalFor(f.patientUser1)); !errs.IsForbidden(err) {
		t.Errorf("patient listing patients: expected ForbiddenError, got %v", err)
	}
}
