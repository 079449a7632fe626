package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDSN(t *testing.T) {
	cfg := Config{User: "bot", Password: "it's secret", Host: "db", Port: "5432", Name: "roulette", SSLMode: "disable"}
	want := `user=bot password='it\'s secret' host=db port=5432 dbname=roulette sslmode=disable`
	if got := DSN(cfg); got != want {
		t.Fatalf("DSN = %s\nwant  %s", got, want)
	}
}

func TestMigrateURL(t *testing.T) {
	cfg := Config{User: "bot", Password: "p@ss", Host: "db", Port: "5432", Name: "roulette", SSLMode: "require"}
	want := "postgres://bot:p%40ss@db:5432/roulette?sslmode=require"
	if got := MigrateURL(cfg); got != want {
		t.Fatalf("MigrateURL = %s, want %s", got, want)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_user_sessions.up.sql", "0002_index.up.sql", "0003_more.up.sql"}
	got := selectApplied(files, 1, 3)
	if len(got) != 2 || got[0] != "0002_index.up.sql" || got[1] != "0003_more.up.sql" {
		t.Fatalf("selectApplied = %v", got)
	}
	if len(selectApplied(files, 3, 3)) != 0 {
		t.Fatal("no change must select nothing")
	}
}

func TestMigrationSource(t *testing.T) {
	src, origin, err := migrationSource("")
	if err != nil || origin != "embedded" {
		t.Fatalf("default source = %s, %v", origin, err)
	}
	files := upFiles(src)
	if len(files) == 0 || files[0] != "0001_user_sessions.up.sql" {
		t.Fatalf("embedded files = %v", files)
	}

	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, origin, err = migrationSource(dir)
	if err != nil || origin != dir {
		t.Fatalf("dir source = %s, %v", origin, err)
	}
	if got := upFiles(src); len(got) != 2 || got[0] != "0001_a.up.sql" || got[1] != "0002_b.up.sql" {
		t.Fatalf("dir files = %v", got)
	}
}

func TestResolveDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m")
	if got, _ := resolveDir(abs); got != abs {
		t.Fatalf("absolute dir changed: %s", got)
	}
	got, err := resolveDir("migrations")
	if err != nil || filepath.Base(got) != "migrations" || !filepath.IsAbs(got) {
		t.Fatalf("relative dir = %s, %v", got, err)
	}
}
