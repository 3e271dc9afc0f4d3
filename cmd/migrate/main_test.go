package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_accounts.sql", true, 1, "create_accounts"},
		{"0012_add_is_anomaly.sql", true, 12, "add_is_anomaly"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("got (%d, %q), want (%d, %q)", version, name, tt.version, tt.name)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	raw := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t` (id INT64);"
	writeFile(t, dir, "0002_second.sql", raw)
	writeFile(t, dir, "0001_first.sql", "SELECT 1;")
	writeFile(t, dir, "README.md", "ignored")

	migrations, err := readMigrations(dir, map[string]string{"PROJECT_ID": "p", "DATASET_ID": "d"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations not sorted: %d, %d", migrations[0].Version, migrations[1].Version)
	}

	second := migrations[1]
	if want := "CREATE TABLE `p.d.t` (id INT64);"; second.SQL != want {
		t.Errorf("SQL = %q, want %q", second.SQL, want)
	}
	if want := fmt.Sprintf("%x", sha256.Sum256([]byte(raw))); second.Checksum != want {
		t.Errorf("checksum must cover the raw file content")
	}
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_a.sql", "SELECT 1;")
	writeFile(t, dir, "0001_b.sql", "SELECT 2;")

	if _, err := readMigrations(dir, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected an error for duplicate versions")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}

	todo, err := pending(all, []AppliedMigration{{Version: 1, Checksum: "c1"}, {Version: 2}})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(todo) != 1 || todo[0].Version != 3 {
		t.Errorf("pending = %+v, want only version 3", todo)
	}

	if _, err := pending(all, []AppliedMigration{{Version: 1, Checksum: "other"}}); err == nil {
		t.Error("expected an error for a changed migration")
	}
}

func TestShippedMigrationsParse(t *testing.T) {
	for _, target := range []string{"bigquery", "postgres"} {
		t.Run(target, func(t *testing.T) {
			dir, err := resolveDir("migrations/" + target)
			if err != nil {
				t.Fatal(err)
			}
			migrations, err := readMigrations(dir, map[string]string{"PROJECT_ID": "p", "DATASET_ID": "d"}, zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			if len(migrations) == 0 {
				t.Fatal("no migrations shipped")
			}
			for i, m := range migrations {
				if m.Version != i+1 {
					t.Errorf("migration %s: version %d, want %d", m.Filename, m.Version, i+1)
				}
			}
		})
	}
}
