package lifecycle

import (
	"testing"

	"clinic-ehr-server/internal/errs"
	"clinic-ehr-server/internal/models"
)

func TestCheckAppointment(t *testing.T) {
	cases := []struct {
		from, to models.AppointmentStatus
		noop     bool
		wantErr  bool
	}{
		{models.AppointmentPending, models.AppointmentConfirmed, false, false},
		{models.AppointmentPending, models.AppointmentCancelled, false, false},
		{models.AppointmentConfirmed, models.AppointmentCompleted, false, false},
		{models.AppointmentConfirmed, models.AppointmentCancelled, false, false},
		{models.AppointmentPending, models.AppointmentCompleted, false, true},
		{models.AppointmentCompleted, models.AppointmentCancelled, false, true},
		{models.AppointmentCancelled, models.AppointmentPending, false, true},
		{models.AppointmentPending, models.AppointmentPending, true, false},
	}
	for _, tc := range cases {
		noop, err := CheckAppointment(tc.from, tc.to)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckAppointment(%s, %s): err = %v, wantErr = %v", tc.from, tc.to, err, tc.wantErr)
		}
		if noop != tc.noop {
			t.Errorf("CheckAppointment(%s, %s): noop = %v, want %v", tc.from, tc.to, noop, tc.noop)
		}
		if tc.wantErr && !errs.IsInvalidTransition(err) {
			t.Errorf("CheckAppointment(%s, %s): expected InvalidTransitionError, got %v", tc.from, tc.to, err)
		}
	}
}

func TestCheckAppointmentUnknownStatus(t *testing.T) {
	_, err := CheckAppointment(models.AppointmentPending, "scheduled")
	if !errs.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown status, got %v", err)
	}
}

func TestCheckLabTest(t *testing.T) {
	cases := []struct {
		from, to models.LabTestStatus
		wantErr  bool
	}{
		{models.LabTestPending, models.LabTestCompleted, false},
		{models.LabTestPending, models.LabTestAbnormal, false},
		{models.LabTestCompleted, models.LabTestAbnormal, true},
		{models.LabTestAbnormal, models.LabTestPending, true},
		{models.LabTestCompleted, models.LabTestPending, true},
	}
	for _, tc := range cases {
		_, err := CheckLabTest(tc.from, tc.to)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckLabTest(%s, %s): err = %v, wantErr = %v", tc.from, tc.to, err, tc.wantErr)
		}
	}
	if noop, err := CheckLabTest(models.LabTestPending, models.LabTestPending); err != nil || !noop {
		t.Errorf("same-status check should be a no-op success, got noop=%v err=%v", noop, err)
	}
}

func TestCheckPrescription(t *testing.T) {
	cases := []struct {
		from, to models.PrescriptionStatus
		wantErr  bool
	}{
		{models.PrescriptionActive, models.PrescriptionCompleted, false},
		{models.PrescriptionActive, models.PrescriptionCancelled, false},
		{models.PrescriptionCompleted, models.PrescriptionActive, true},
		{models.PrescriptionCancelled, models.PrescriptionCompleted, true},
	}
	for _, tc := range cases {
		_, err := CheckPrescription(tc.from, tc.to)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckPrescription(%s, %s): err = %v, wantErr = %v", tc.from, tc.to, err, tc.wantErr)
		}
	}
}

func TestCheckRecord(t *testing.T) {
	cases := []struct {
		from, to models.RecordStatus
		wantErr  bool
	}{
		{models.RecordDraft, models.RecordCompleted, false},
		{models.RecordCompleted, models.RecordArchived, false},
		{models.RecordDraft, models.RecordArchived, true},
		{models.RecordArchived, models.RecordCompleted, true},
		{models.RecordCompleted, models.RecordDraft, true},
	}
	for _, tc := range cases {
		_, err := CheckRecord(tc.from, tc.to)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckRecord(%s, %s): err = %v, wantErr = %v", tc.from, tc.to, err, tc.wantErr)
		}
	}
}

func TestAllowedInitialRecordStatus(t *testing.T) {
	if !AllowedInitialRecordStatus(models.RecordDraft) {
		t.Error("draft should be a valid initial status")
	}
	if !AllowedInitialRecordStatus(models.RecordCompleted) {
		t.Error("completed should be a valid initial status")
	}
	if AllowedInitialRecordStatus(models.RecordArchived) {
		t.Error("archived should not be a valid initial status")
	}
}
