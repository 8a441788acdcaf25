package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRollingWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()

	rw, err := newRollingWriter(dir, "log")
	if err != nil {
		t.Fatalf("newRollingWriter failed: %v", err)
	}
	defer rw.Close()

	clock := time.Date(2024, 3, 15, 10, 59, 0, 0, time.UTC)
	rw.now = func() time.Time { return clock }

	if _, err := rw.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Cross the hour boundary.
	clock = clock.Add(2 * time.Minute)
	if _, err := rw.Write([]byte("second line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "2024-03-15-10.log"))
	if err != nil {
		t.Fatalf("Expected file for hour 10: %v", err)
	}
	if string(first) != "first line\n" {
		t.Errorf("Hour 10 file content = %q", first)
	}

	second, err := os.ReadFile(filepath.Join(dir, "2024-03-15-11.log"))
	if err != nil {
		t.Fatalf("Expected file for hour 11: %v", err)
	}
	if string(second) != "second line\n" {
		t.Errorf("Hour 11 file content = %q", second)
	}
}

func TestRollingWriter_Prune(t *testing.T) {
	dir := t.TempDir()

	// Pre-create more files than the retention count.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxLogFiles+5; i++ {
		name := base.Add(time.Duration(i) * time.Hour).Format("2006-01-02-15") + ".log"
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rw, err := newRollingWriter(dir, "log")
	if err != nil {
		t.Fatal(err)
	}
	defer rw.Close()

	rw.now = func() time.Time { return base.Add(time.Duration(maxLogFiles+5) * time.Hour) }
	if _, err := rw.Write([]byte("line\n")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != maxLogFiles {
		t.Errorf("Expected %d files after prune, got %d", maxLogFiles, len(entries))
	}

	// The oldest files are the ones removed.
	if _, err := os.Stat(filepath.Join(dir, "2024-01-01-00.log")); !os.IsNotExist(err) {
		t.Error("Expected oldest file to be pruned")
	}
}

func TestRollingWriter_IgnoresOtherSuffixes(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < maxLogFiles+1; i++ {
		name := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(i)*time.Hour).Format("2006-01-02-15") + ".log"
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rw, err := newRollingWriter(dir, "log")
	if err != nil {
		t.Fatal(err)
	}
	defer rw.Close()
	rw.prune()

	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Error("Prune must not touch files with a different suffix")
	}
}
