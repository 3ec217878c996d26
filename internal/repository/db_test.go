package repository

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithForeignKeys(t *testing.T) {
	tests := map[string]string{
		"planner.db":                         "planner.db?_foreign_keys=1",
		"file:x?mode=memory&cache=shared":    "file:x?mode=memory&cache=shared&_foreign_keys=1",
		"planner.db?_foreign_keys=0":         "planner.db?_foreign_keys=0",
		"file:planner.db?_fk=1&_timeout=500": "file:planner.db?_fk=1&_timeout=500",
	}
	for in, want := range tests {
		if got := withForeignKeys(in); got != want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()
	if err := ensureDirForSQLite("file:" + dir + "/nested/planner.db?cache=shared"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "nested")); err != nil || !info.IsDir() {
		t.Fatalf("nested dir not created: %v", err)
	}
	if err := ensureDirForSQLite(":memory:"); err != nil {
		t.Fatalf("memory dsn: %v", err)
	}
}
