package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"platewatch/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "plates.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

// ========================================
// Plate Repository Tests
// ========================================

func TestPlateRepository_GetAllAscending(t *testing.T) {
	repo := NewPlateRepository(setupTestDB(t))

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		rec := &model.PlateRecord{
			PlateNumber: []string{"C", "A", "B"}[i],
			Confidence:  90,
			Timestamp:   base.Add(offset),
			ProcessedBy: "system",
		}
		id, err := repo.Insert(rec)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id == 0 || rec.ID != id {
			t.Errorf("Insert should set the record ID, got %d / %d", id, rec.ID)
		}
	}

	recs, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("GetAll returned %d records, expected 3", len(recs))
	}
	for i, want := range []string{"A", "B", "C"} {
		if recs[i].PlateNumber != want {
			t.Errorf("recs[%d] = %s, expected %s", i, recs[i].PlateNumber, want)
		}
	}
	if !recs[0].Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, expected %v", recs[0].Timestamp, base)
	}
}

func TestPlateRepository_EmptyIsNotNil(t *testing.T) {
	repo := NewPlateRepository(setupTestDB(t))

	recs, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestPlateRepository_BatchSinceCountDelete(t *testing.T) {
	repo := NewPlateRepository(setupTestDB(t))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	batch := []model.PlateRecord{
		{PlateNumber: "OLD", Confidence: 80, Timestamp: base.Add(-time.Hour), ProcessedBy: "import"},
		{PlateNumber: "NEW1", Confidence: 81, Timestamp: base.Add(time.Hour), ProcessedBy: "import"},
		{PlateNumber: "NEW2", Confidence: 82, Timestamp: base.Add(2 * time.Hour), ProcessedBy: "import", IsAuthorized: true},
	}
	if err := repo.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	count, err := repo.Count()
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v; expected 3", count, err)
	}

	since, err := repo.GetSince(base)
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(since) != 2 || since[0].PlateNumber != "NEW1" {
		t.Errorf("GetSince returned %+v", since)
	}
	if !since[1].IsAuthorized {
		t.Error("IsAuthorized should round-trip")
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count, _ := repo.Count(); count != 0 {
		t.Errorf("Count after DeleteAll = %d, expected 0", count)
	}
}

// ========================================
// Camera Repository Tests
// ========================================

func TestCameraRepository_CRUD(t *testing.T) {
	repo := NewCameraRepository(setupTestDB(t))

	cam := &model.Camera{
		Name:       "gate",
		IPAddress:  "10.0.0.5",
		Port:       554,
		Username:   "admin",
		Password:   "secret",
		StreamType: model.StreamRTSP,
		RTSPPath:   "/stream1",
		IsActive:   true,
	}
	id, err := repo.Insert(cam)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(id)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %v, %v", got, err)
	}
	if got.Password != "secret" || got.RTSPPath != "/stream1" || got.LastConnected != nil {
		t.Errorf("unexpected camera: %+v", got)
	}

	if _, err := repo.Insert(&model.Camera{Name: "gate", IPAddress: "10.0.0.6"}); err == nil {
		t.Error("duplicate camera name should fail")
	}

	byName, err := repo.GetByName("gate")
	if err != nil || byName == nil || byName.ID != id {
		t.Errorf("GetByName = %v, %v", byName, err)
	}

	got.Port = 8554
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.TouchConnected(id, at); err != nil {
		t.Fatalf("TouchConnected failed: %v", err)
	}
	got, _ = repo.GetByID(id)
	if got.Port != 8554 {
		t.Errorf("Port = %d, expected 8554", got.Port)
	}
	if got.LastConnected == nil || !got.LastConnected.Equal(at) {
		t.Errorf("LastConnected = %v, expected %v", got.LastConnected, at)
	}

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, err := repo.GetByID(id); err != nil || got != nil {
		t.Errorf("deleted camera should be absent, got %v, %v", got, err)
	}
}

func TestCameraRepository_GetActive(t *testing.T) {
	repo := NewCameraRepository(setupTestDB(t))

	on := &model.Camera{Name: "on", IPAddress: "10.0.0.1", Port: 80, StreamType: model.StreamHTTP, IsActive: true}
	off := &model.Camera{Name: "off", IPAddress: "10.0.0.2", Port: 80, StreamType: model.StreamHTTP, IsActive: true}
	repo.Insert(on)
	repo.Insert(off)

	if err := repo.SetActive(off.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if len(active) != 1 || active[0].Name != "on" {
		t.Errorf("GetActive = %+v, expected only 'on'", active)
	}

	all, _ := repo.GetAll()
	if len(all) != 2 {
		t.Errorf("GetAll returned %d cameras, expected 2", len(all))
	}
}

// ========================================
// Authorized Plate Repository Tests
// ========================================

func TestAuthorizedPlateRepository_Lookup(t *testing.T) {
	repo := NewAuthorizedPlateRepository(setupTestDB(t))

	p := &model.AuthorizedPlate{PlateNumber: "34ABC123", Description: "staff", IsActive: true, Sensitivity: 75}
	if _, err := repo.Insert(p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}

	active, err := repo.GetActiveByPlateNumber("34ABC123")
	if err != nil || active == nil {
		t.Fatalf("GetActiveByPlateNumber = %v, %v", active, err)
	}
	if active.Sensitivity != 75 {
		t.Errorf("Sensitivity = %v, expected 75", active.Sensitivity)
	}

	p.IsActive = false
	if err := repo.Update(p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got, _ := repo.GetActiveByPlateNumber("34ABC123"); got != nil {
		t.Error("inactive plate should not be returned as active")
	}
	if got, _ := repo.GetByPlateNumber("34ABC123"); got == nil {
		t.Error("GetByPlateNumber should ignore status")
	}

	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	if err := repo.TouchAccess(p.ID, at); err != nil {
		t.Fatalf("TouchAccess failed: %v", err)
	}
	got, _ := repo.GetByID(p.ID)
	if got.LastAccess == nil || !got.LastAccess.Equal(at) {
		t.Errorf("LastAccess = %v, expected %v", got.LastAccess, at)
	}

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	all, _ := repo.GetAll()
	if len(all) != 0 {
		t.Errorf("GetAll after delete = %d entries", len(all))
	}
}
