package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationManager_Up(t *testing.T) {
	testDir := filepath.Join(os.TempDir(), "asi-test-migration")
	dbPath := filepath.Join(testDir, "migration-test.db")

	os.RemoveAll(testDir)
	defer os.RemoveAll(testDir)

	if err := os.MkdirAll(testDir, 0o755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}

	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("Failed to close migration manager: %v", err)
	}

	mgr2, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen migration manager: %v", err)
	}
	defer mgr2.Close()

	version, dirty, err := mgr2.Version()
	if err != nil {
		t.Fatalf("Failed to get migration version: %v", err)
	}

	if dirty {
		t.Error("Database is in dirty state after migrations")
	}

	if version < 1 {
		t.Errorf("Expected migration version >= 1, got %d", version)
	}
}

func TestMigrationManager_BigramRecordsTable(t *testing.T) {
	testDir := filepath.Join(os.TempDir(), "asi-test-bigram-schema")
	dbPath := filepath.Join(testDir, "bigram-test.db")

	os.RemoveAll(testDir)
	defer os.RemoveAll(testDir)

	if err := os.MkdirAll(testDir, 0o755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	config := DefaultConfig(dbPath)
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		t.Fatalf("Failed to open database with migrations: %v", err)
	}
	defer db.Close()

	var tableName string
	err = db.Conn().QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='bigram_records'
	`).Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Fatal("bigram_records table does not exist after migration")
		}
		t.Fatalf("Failed to query for table: %v", err)
	}

	columns := []string{"id", "format", "archetype", "card1", "card2", "k1", "k2"}
	for _, col := range columns {
		var colInfo string
		err = db.Conn().QueryRow(`
			SELECT name FROM pragma_table_info('bigram_records') WHERE name = ?
		`, col).Scan(&colInfo)
		if err != nil {
			if err == sql.ErrNoRows {
				t.Errorf("Column '%s' does not exist in bigram_records table", col)
				continue
			}
			t.Errorf("Failed to query column info for '%s': %v", col, err)
		}
	}

	indexes := []string{"idx_bigram_records_lookup", "idx_bigram_records_archetype"}
	for _, idx := range indexes {
		var indexName string
		err = db.Conn().QueryRow(`
			SELECT name FROM sqlite_master
			WHERE type='index' AND name = ?
		`, idx).Scan(&indexName)
		if err != nil {
			if err == sql.ErrNoRows {
				t.Errorf("Index '%s' does not exist", idx)
				continue
			}
			t.Errorf("Failed to query index '%s': %v", idx, err)
		}
	}
}

func TestMigrationManager_Down(t *testing.T) {
	testDir := filepath.Join(os.TempDir(), "asi-test-migration-down")
	dbPath := filepath.Join(testDir, "migration-down-test.db")

	os.RemoveAll(testDir)
	defer os.RemoveAll(testDir)

	if err := os.MkdirAll(testDir, 0o755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}

	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations up: %v", err)
	}

	versionBefore, _, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version before down: %v", err)
	}

	if err := mgr.Steps(-1); err != nil {
		t.Fatalf("Failed to run migration down: %v", err)
	}

	versionAfter, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version after down: %v", err)
	}

	if dirty {
		t.Error("Database is in dirty state after rollback")
	}

	if versionAfter >= versionBefore {
		t.Errorf("Version should decrease after down migration: before=%d, after=%d", versionBefore, versionAfter)
	}

	mgr.Close()
}

func TestMigrationManager_Version(t *testing.T) {
	testDir := filepath.Join(os.TempDir(), "asi-test-migration-version")
	dbPath := filepath.Join(testDir, "version-test.db")

	os.RemoveAll(testDir)
	defer os.RemoveAll(testDir)

	if err := os.MkdirAll(testDir, 0o755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	defer mgr.Close()

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}

	if dirty {
		t.Error("Fresh database should not be dirty")
	}

	if version != 0 {
		t.Logf("Note: Database has existing version %d (may have migrations from prior test)", version)
	}
}
