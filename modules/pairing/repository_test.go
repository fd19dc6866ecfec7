package pairing

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCodeDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&Code{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(setupCodeDB(t))
	now := time.Now().UTC()

	rec, err := repo.Create("#3B82F6", "default", DefaultTTL, now)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(rec.Code) != 6 {
		t.Errorf("expected 6-char code, got %q", rec.Code)
	}
	if got := rec.ExpiresAt.Sub(now); got != DefaultTTL {
		t.Errorf("expires_at offset = %s, want %s", got, DefaultTTL)
	}

	found, err := repo.Get(rec.Code)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found.AvatarColor != "#3B82F6" || found.Channel != "default" {
		t.Errorf("stored row mismatch: %+v", found)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(setupCodeDB(t))
	if _, err := repo.Get("AB12CD"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_DeleteReportsRowCount(t *testing.T) {
	repo := NewRepository(setupCodeDB(t))
	rec, err := repo.Create("#3B82F6", "default", DefaultTTL, time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := repo.Delete(rec.Code)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false for existing row")
	}

	deleted, err = repo.Delete(rec.Code)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Error("Delete() = true for absent row")
	}
}

func TestRepository_DeleteExpired(t *testing.T) {
	repo := NewRepository(setupCodeDB(t))
	now := time.Now().UTC()

	if _, err := repo.Create("#3B82F6", "default", time.Minute, now); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	stale, err := repo.Create("#8A2BE2", "default", time.Minute, now.Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	reaped, err := repo.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if reaped != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", reaped)
	}
	if _, err := repo.Get(stale.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired row still present: %v", err)
	}
}

func TestGenerateCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
				t.Fatalf("code %q contains non-uppercase-hex rune %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes in 100 draws", len(seen))
	}
}
