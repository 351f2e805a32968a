package db

import (
	"errors"
	"testing"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	database, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return NewRepository(database)
}

func TestKeyValue(t *testing.T) {
	repo := setupTestDB(t)

	// Missing key
	if _, err := repo.Get("dailyNotes"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Insert
	if err := repo.Put("dailyNotes", `{"2024-03-01":{}}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Get("dailyNotes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"2024-03-01":{}}` {
		t.Errorf("value = %q", got)
	}

	// Overwrite
	if err := repo.Put("dailyNotes", `{}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = repo.Get("dailyNotes")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if got != `{}` {
		t.Errorf("value after overwrite = %q", got)
	}

	if err := repo.Put("kai_auth", "true"); err != nil {
		t.Fatalf("put auth: %v", err)
	}
	if got, err := repo.Get("kai_auth"); err != nil || got != "true" {
		t.Errorf("auth flag = %q, %v", got, err)
	}

	// Delete
	if err := repo.Delete("kai_auth"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete("kai_auth"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := repo.Get("kai_auth"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestExportLog(t *testing.T) {
	repo := setupTestDB(t)

	latest, err := repo.GetLatestExport()
	if err != nil {
		t.Fatalf("latest on empty table: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil, got %+v", latest)
	}

	if err := repo.LogExport("/vault", 3, ""); err != nil {
		t.Fatalf("log first: %v", err)
	}
	if err := repo.LogExport("/vault", 5, "abc123"); err != nil {
		t.Fatalf("log second: %v", err)
	}

	latest, err = repo.GetLatestExport()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil {
		t.Fatal("expected record, got nil")
	}
	if latest.Files != 5 {
		t.Errorf("files = %d", latest.Files)
	}
	if latest.CommitHash != "abc123" {
		t.Errorf("commit hash = %q", latest.CommitHash)
	}
	if latest.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}
