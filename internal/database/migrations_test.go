package database

import (
	"testing"
	"testing/fstest"
)

func TestListMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_service_points.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
		"001_init_schema.sql":        &fstest.MapFile{Data: []byte("SELECT 1;")},
		"010_add_indexes.sql":        &fstest.MapFile{Data: []byte("SELECT 10;")},
		"migrations.go":              &fstest.MapFile{Data: []byte("package migrations")},
		"README.md":                  &fstest.MapFile{Data: []byte("notes")},
	}

	files, err := listMigrationFiles(fsys)
	if err != nil {
		t.Fatalf("listMigrationFiles returned error: %v", err)
	}

	want := []string{"001_init_schema.sql", "002_add_service_points.sql", "010_add_indexes.sql"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestListMigrationFiles_Empty(t *testing.T) {
	files, err := listMigrationFiles(fstest.MapFS{})
	if err != nil {
		t.Fatalf("listMigrationFiles returned error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}
