package handlers

import (
	"net/http"
	"testing"

	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/store"
)

func TestUserListingIsAudited(t *testing.T) {
	db := newTestDB(t)
	st := store.New(db)
	log := audit.New(db)
	h := NewUserHandler(st, log)

	user := &models.User{Email: "patient@clinic.test", Role: models.RolePatient}
	user.SetPassword("secret-password")
	if err := st.CreateUser(user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	c, w := newTestContext(t, "GET", "/api/v1/users", "")
	h.GetUsers(c)
	if w.Code != http.StatusOK {
		t.Fatalf("GetUsers status = %d, want 200", w.Code)
	}

	entries := auditEntries(t, log)
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(entries))
	}
	if entries[0].Type != models.ActivityView {
		t.Errorf("entry type = %s, want view", entries[0].Type)
	}
	if entries[0].Description != "Viewed all users" {
		t.Errorf("entry description = %q", entries[0].Description)
	}
}
