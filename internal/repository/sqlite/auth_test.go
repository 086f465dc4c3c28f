package sqlite

import (
	"testing"
	"time"

	"platewatch/internal/model"
)

// ========================================
// User and Session Repository Tests
// ========================================

func TestUserRepository_CRUD(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if n, _ := repo.Count(); n != 0 {
		t.Fatalf("Count = %d on an empty database", n)
	}

	u := &model.User{Username: "ops", Email: "ops@example.com", PasswordHash: "h1", Role: model.RoleOperator, IsActive: true}
	if _, err := repo.Insert(u); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.Insert(&model.User{Username: "ops", Email: "other@example.com", PasswordHash: "h", Role: model.RoleOperator}); err == nil {
		t.Error("duplicate username should be rejected")
	}

	got, err := repo.GetByUsername("ops")
	if err != nil || got == nil {
		t.Fatalf("GetByUsername = %v, %v", got, err)
	}
	if got.PasswordHash != "h1" || got.LastLogin != nil || !got.IsActive {
		t.Errorf("unexpected user %+v", got)
	}
	if byEmail, _ := repo.GetByEmail("ops@example.com"); byEmail == nil || byEmail.ID != u.ID {
		t.Errorf("GetByEmail = %+v", byEmail)
	}
	if missing, err := repo.GetByID(99); missing != nil || err != nil {
		t.Errorf("missing user = %+v, %v; expected nil, nil", missing, err)
	}

	got.Role = model.RoleAdmin
	got.IsActive = false
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.TouchLogin(u.ID, at); err != nil {
		t.Fatalf("TouchLogin failed: %v", err)
	}
	got, _ = repo.GetByID(u.ID)
	if got.Role != model.RoleAdmin || got.IsActive || got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Errorf("update result = %+v", got)
	}

	all, _ := repo.GetAll()
	if len(all) != 1 {
		t.Errorf("GetAll returned %d users", len(all))
	}
	if err := repo.Delete(u.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := repo.Count(); n != 0 {
		t.Errorf("Count = %d after delete", n)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)

	u := &model.User{Username: "ops", Email: "ops@example.com", PasswordHash: "h", Role: model.RoleOperator, IsActive: true}
	users.Insert(u)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	live := &model.Session{Token: "live", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	old := &model.Session{Token: "old", UserID: u.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{live, old} {
		if err := sessions.Insert(s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := sessions.Get("live")
	if err != nil || got == nil || got.UserID != u.ID || !got.ExpiresAt.Equal(live.ExpiresAt) {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if missing, err := sessions.Get("nope"); missing != nil || err != nil {
		t.Errorf("unknown token = %+v, %v", missing, err)
	}

	n, err := sessions.DeleteExpired(now)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired = %d, %v; expected 1", n, err)
	}
	if s, _ := sessions.Get("old"); s != nil {
		t.Error("expired session should be gone")
	}

	if err := users.Delete(u.ID); err != nil {
		t.Fatalf("Delete user failed: %v", err)
	}
	if s, _ := sessions.Get("live"); s != nil {
		t.Error("sessions should be removed with their user")
	}
}

// ========================================
// Authorization History Repository Tests
// ========================================

func TestHistoryRepository_NewestFirst(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t))

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.AuthorizationHistory{
		{PlateNumber: "34ABC123", Action: model.HistoryAdded, ChangedBy: "admin", Timestamp: base},
		{PlateNumber: "06XYZ9", Action: model.HistoryAdded, ChangedBy: "admin", Timestamp: base.Add(time.Minute)},
		{PlateNumber: "34ABC123", Action: model.HistoryDeactivated, ChangedBy: "ops", Timestamp: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		if _, err := repo.Insert(&entries[i]); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	all, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 || all[0].Action != model.HistoryDeactivated || all[2].PlateNumber != "34ABC123" {
		t.Errorf("expected newest first, got %+v", all)
	}

	plate, _ := repo.GetByPlateNumber("34ABC123")
	if len(plate) != 2 || plate[0].ChangedBy != "ops" {
		t.Errorf("plate history = %+v", plate)
	}

	empty, _ := repo.GetByPlateNumber("NONE")
	if empty == nil || len(empty) != 0 {
		t.Errorf("unknown plate should give an empty slice, got %#v", empty)
	}
}
