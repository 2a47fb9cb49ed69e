// Package lifecycle holds the per-entity status transition tables. A status
// may only change along an edge listed here; requesting the current status
// again is a no-op, anything else is an InvalidTransitionError.
package lifecycle

import (
	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"
)

var appointmentTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.AppointmentPending:   {models.AppointmentConfirmed, models.AppointmentCancelled},
	models.AppointmentConfirmed: {models.AppointmentCompleted, models.AppointmentCancelled},
	models.AppointmentCompleted: {},
	models.AppointmentCancelled: {},
}

var labTestTransitions = map[models.LabTestStatus][]models.LabTestStatus{
	models.LabTestPending:   {models.LabTestCompleted, models.LabTestAbnormal},
	models.LabTestCompleted: {},
	models.LabTestAbnormal:  {},
}

var prescriptionTransitions = map[models.PrescriptionStatus][]models.PrescriptionStatus{
	models.PrescriptionActive:    {models.PrescriptionCompleted, models.PrescriptionCancelled},
	models.PrescriptionCompleted: {},
	models.PrescriptionCancelled: {},
}

var recordTransitions = map[models.RecordStatus][]models.RecordStatus{
	models.RecordDraft:     {models.RecordCompleted},
	models.RecordCompleted: {models.RecordArchived},
	models.RecordArchived:  {},
}

// CheckAppointment validates an appointment status change. Returns
// (noop=true, nil) when from == to.
func CheckAppointment(from, to models.AppointmentStatus) (bool, error) {
	if _, known := appointmentTransitions[to]; !known {
		return false, errs.Validation("appointment", "status", "unknown status "+string(to))
	}
	if from == to {
		return true, nil
	}
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return false, nil
		}
	}
	return false, errs.InvalidTransition("appointment", string(from), string(to))
}

// CheckLabTest validates a lab test status change.
func CheckLabTest(from, to models.LabTestStatus) (bool, error) {
	if _, known := labTestTransitions[to]; !known {
		return false, errs.Validation("lab test", "status", "unknown status "+string(to))
	}
	if from == to {
		return true, nil
	}
	for _, next := range labTestTransitions[from] {
		if next == to {
			return false, nil
		}
	}
	return false, errs.InvalidTransition("lab test", string(from), string(to))
}

// CheckPrescription validates a prescription status change.
func CheckPrescription(from, to models.PrescriptionStatus) (bool, error) {
	if _, known := prescriptionTransitions[to]; !known {
		return false, errs.Validation("prescription", "status", "unknown status "+string(to))
	}
	if from == to {
		return true, nil
	}
	for _, next := range prescriptionTransitions[from] {
		if next == to {
			return false, nil
		}
	}
	return false, errs.InvalidTransition("prescription", string(from), string(to))
}

// CheckRecord validates a medical record status change.
func CheckRecord(from, to models.RecordStatus) (bool, error) {
	if _, known := recordTransitions[to]; !known {
		return false, errs.Validation("medical record", "status", "unknown status "+string(to))
	}
	if from == to {
		return true, nil
	}
	for _, next := range recordTransitions[from] {
		if next == to {
			return false, nil
		}
	}
	return false, errs.InvalidTransition("medical record", string(from), string(to))
}

// InitialAppointmentStatus is the only status an appointment may be created
// with.
const InitialAppointmentStatus = models.AppointmentPending

// AllowedInitialRecordStatus reports whether a medical record may be created
// with the given status. Records may be created pre-finalized as completed,
// but never directly archived.
func AllowedInitialRecordStatus(s models.RecordStatus) bool {
	return s == models.RecordDraft || s == models.RecordCompleted
}
