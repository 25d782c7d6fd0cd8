package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-rgb7seg/migrations" // registers the settings schema
)

func openStore(t *testing.T, path string) (*SQLiteStore, *database.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Path: path, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteStore(db.DB), db
}

func TestSQLiteStore_DefaultsWhenMissing(t *testing.T) {
	s, _ := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	if v, err := s.Read("zonelow", 1800); err != nil || v != 1800 {
		t.Errorf("Read() = (%d, %v), want (1800, nil)", v, err)
	}
	if v, err := s.ReadStr("28aa", "28aa"); err != nil || v != "28aa" {
		t.Errorf("ReadStr() = (%q, %v), want (28aa, nil)", v, err)
	}
}

func TestSQLiteStore_CommitPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	s, db := openStore(t, path)

	if err := s.Write("zonelow", 2000); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.WriteStr("28c1cf574e13c97", "inside"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}

	// Visible before commit.
	if v, _ := s.Read("zonelow", 0); v != 2000 {
		t.Errorf("Read() before commit = %d, want 2000", v)
	}
	if s.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", s.Pending())
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() after commit = %d, want 0", s.Pending())
	}

	// Overwrite and commit again to exercise the upsert.
	s.Write("zonelow", 2100) //nolint:errcheck // Non-empty key cannot fail
	if err := s.Commit(); err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	db.Close() //nolint:errcheck // Reopen below

	reopened, _ := openStore(t, path)
	if v, err := reopened.Read("zonelow", 0); err != nil || v != 2100 {
		t.Errorf("Read() after reopen = (%d, %v), want (2100, nil)", v, err)
	}
	if v, err := reopened.ReadStr("28c1cf574e13c97", ""); err != nil || v != "inside" {
		t.Errorf("ReadStr() after reopen = (%q, %v), want (inside, nil)", v, err)
	}
}

func TestSQLiteStore_TypeMismatch(t *testing.T) {
	s, _ := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	s.WriteStr("defcolor", "red") //nolint:errcheck // Non-empty key cannot fail
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := s.Read("defcolor", 0); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Read(string key) error = %v, want ErrTypeMismatch", err)
	}
}

func TestSQLiteStore_EmptyKey(t *testing.T) {
	s, _ := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	if err := s.Write("", 1); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Write(\"\") error = %v, want ErrEmptyKey", err)
	}
}

func TestModel_OverSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	s, db := openStore(t, path)

	m := Load(s, nil)
	m.SetZoneLow(2000)
	m.SetDefaultColor("green")
	if err := m.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := m.SaveAlias("28aa", "garage"); err != nil {
		t.Fatalf("SaveAlias() error = %v", err)
	}
	db.Close() //nolint:errcheck // Reopen below

	s2, _ := openStore(t, path)
	m2 := Load(s2, nil)
	cfg := m2.Snapshot()
	if cfg.ZoneLow != 2000 || cfg.DefaultColor != "green" {
		t.Errorf("reloaded config = %+v", cfg)
	}
	if name, ok := m2.StoredAlias("28aa"); !ok || name != "garage" {
		t.Errorf("StoredAlias() = (%q, %v), want (garage, true)", name, ok)
	}
}
