package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSplitDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		host     string
		port     string
		user     string
		password string
		dbname   string
	}{
		{
			name:     "compose default",
			url:      "postgres://postgres:secret@db/coverage",
			host:     "db",
			port:     "5432",
			user:     "postgres",
			password: "secret",
			dbname:   "coverage",
		},
		{
			name:     "explicit port and params",
			url:      "postgres://app:pw@localhost:5433/board?sslmode=disable",
			host:     "localhost",
			port:     "5433",
			user:     "app",
			password: "pw",
			dbname:   "board",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, user, password, dbname := splitDatabaseURL(tt.url)

			if host != tt.host || port != tt.port || user != tt.user ||
				password != tt.password || dbname != tt.dbname {
				t.Errorf("splitDatabaseURL(%q) = %q %q %q %q %q",
					tt.url, host, port, user, password, dbname)
			}
		})
	}
}

func TestBackupManager_CleanupOldBackups(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "cvb-backup-20200101-000000.sql.gz")
	newFile := filepath.Join(dir, "cvb-backup-20990101-000000.sql.gz")
	otherFile := filepath.Join(dir, "notes.txt")
	for _, f := range []string{oldFile, newFile, otherFile} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Age the old backup past the retention window.
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatal(err)
	}

	bm := NewBackupManager(BackupConfig{
		BackupDir:     dir,
		RetentionDays: 7,
	}, nil)

	if err := bm.cleanupOldBackups(); err != nil {
		t.Fatalf("cleanupOldBackups failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected old backup to be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Error("Expected recent backup to survive")
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Error("Expected unrelated file to survive")
	}
}

func TestBackupManager_ListBackups(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"cvb-backup-20240101-000000.sql.gz",
		"cvb-backup-20240201-000000.sql.gz",
		"unrelated.log",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	bm := NewBackupManager(BackupConfig{BackupDir: dir}, nil)

	backups, err := bm.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("Expected 2 backups, got %d", len(backups))
	}
}
