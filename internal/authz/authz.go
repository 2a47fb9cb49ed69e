// Package authz decides, for a (principal, operation, entity) triple,
// whether the operation is permitted. It runs before the store is touched.
// Role-capability misses surface as ForbiddenError; ownership misses on
// patient-scoped resources surface as NotFoundError so a patient cannot
// enumerate other patients' data.
package authz

import (
	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
)

// Principal is the authenticated actor making a request.
type Principal struct {
	UserID string
	Email  string
	Role   models.Role
}

// Gate evaluates authorization rules. It resolves profile ids through the
// store because doctor ownership is keyed two different ways: medical
// records by the doctor's User id, appointments by the Doctor profile id.
type Gate struct {
	store *store.Store
}

// NewGate creates a Gate backed by the given store.
func NewGate(st *store.Store) *Gate {
	return &Gate{store: st}
}

// ownsPatient reports whether the principal's patient profile is patientID.
func (g *Gate) ownsPatient(p Principal, patientID string) bool {
	profile, err := g.store.PatientProfileForUser(p.UserID)
	if err != nil {
		return false
	}
	return profile.ID == patientID
}

// doctorProfileID resolves the principal to their Doctor profile id.
func (g *Gate) doctorProfileID(p Principal) (string, bool) {
	profile, err := g.store.DoctorProfileForUser(p.UserID)
	if err != nil {
		return "", false
	}
	return profile.ID, true
}

// CanReadPatientScoped gates reads of entities owned by patientID
// (medical records, prescriptions, lab tests, patient profiles).
func (g *Gate) CanReadPatientScoped(p Principal, entity, patientID string) error {
	switch p.Role {
	case models.RoleAdmin, models.RoleDoctor:
		return nil
	case models.RolePatient:
		if g.ownsPatient(p, patientID) {
			return nil
		}
		return errs.NotFound(entity, patientID)
	default:
		return errs.Forbidden("unknown role")
	}
}

// CanWriteClinical gates creation of clinical entities (medical records,
// prescriptions, lab tests). Patients never write clinical data.
func (g *Gate) CanWriteClinical(p Principal) error {
	if p.Role == models.RoleAdmin || p.Role == models.RoleDoctor {
		return nil
	}
	return errs.Forbidden("only doctors may write clinical data")
}

// CanReadMedicalRecord gates reads of a single record.
func (g *Gate) CanReadMedicalRecord(p Principal, record *models.MedicalRecord) error {
	return g.CanReadPatientScoped(p, "medical record", record.PatientID)
}

// CanWriteMedicalRecord gates mutation of a record: only the authoring
// doctor or an admin.
func (g *Gate) CanWriteMedicalRecord(p Principal, record *models.MedicalRecord) error {
	if p.Role == models.RoleAdmin {
		return nil
	}
	if p.Role == models.RoleDoctor && record.DoctorID == p.UserID {
		return nil
	}
	if p.Role == models.RoleDoctor {
		return errs.Forbidden("only the authoring doctor may modify this record")
	}
	return errs.Forbidden("only doctors may write clinical data")
}

// CanWriteRecordChild gates creation of prescriptions and lab tests: the
// parent record must be authored by the principal (or the principal is an
// admin).
func (g *Gate) CanWriteRecordChild(p Principal, parent *models.MedicalRecord) error {
	return g.CanWriteMedicalRecord(p, parent)
}

// CanReadAppointment gates reads of a single appointment: the involved
// patient, the involved doctor, or an admin.
func (g *Gate) CanReadAppointment(p Principal, appointment *models.Appointment) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDoctor:
		if id, ok := g.doctorProfileID(p); ok && id == appointment.DoctorID {
			return nil
		}
		return errs.Forbidden("appointment belongs to another doctor")
	case models.RolePatient:
		if g.ownsPatient(p, appointment.PatientID) {
			return nil
		}
		return errs.NotFound("appointment", appointment.ID)
	default:
		return errs.Forbidden("unknown role")
	}
}

// CanTransitionAppointment gates status changes. Doctors and admins may
// apply any legal transition on their appointments; patients may only
// cancel their own while it is still pending or confirmed.
func (g *Gate) CanTransitionAppointment(p Principal, appointment *models.Appointment, to models.AppointmentStatus) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDoctor:
		if id, ok := g.doctorProfileID(p); ok && id == appointment.DoctorID {
			return nil
		}
		return errs.Forbidden("appointment belongs to another doctor")
	case models.RolePatient:
		if !g.ownsPatient(p, appointment.PatientID) {
			return errs.NotFound("appointment", appointment.ID)
		}
		if to != models.AppointmentCancelled {
			return errs.Forbidden("patients may only cancel appointments")
		}
		return nil
	default:
		return errs.Forbidden("unknown role")
	}
}

// CanManageUsers gates the admin user directory and system administration
// surfaces.
func (g *Gate) CanManageUsers(p Principal) error {
	if p.Role == models.RoleAdmin {
		return nil
	}
	return errs.Forbidden("administrator access required")
}

// CanListPatients gates the shared patient directory, intentionally open to
// doctors as well as admins.
func (g *Gate) CanListPatients(p Principal) error {
	if p.Role == models.RoleAdmin || p.Role == models.RoleDoctor {
		return nil
	}
	return errs.Forbidden("only doctors and administrators may list patients")
}
