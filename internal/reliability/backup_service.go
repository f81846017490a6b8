// Package reliability keeps the service recoverable: local sqlite snapshots
// and optional cloud archives of both databases.
package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"marketpulse/internal/database"
)

// BackupService takes local snapshots of the configured databases.
// Snapshots live under <backupDir>/<timestamp>/<name>.db and are pruned to
// the configured number of most recent sets.
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	keep      int
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, backupDir string, keep int, log zerolog.Logger) *BackupService {
	if keep <= 0 {
		keep = 7
	}
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		keep:      keep,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Backup snapshots every database into a fresh timestamped directory.
// A database that fails to snapshot is logged and skipped; the set is still
// written for the ones that succeeded.
func (s *BackupService) Backup() (string, error) {
	startTime := time.Now()

	snapshotDir := filepath.Join(s.backupDir, time.Now().Format("2006-01-02-150405"))
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	succeeded := 0
	for name := range s.databases {
		backupPath := filepath.Join(snapshotDir, name+".db")

		if err := s.BackupDatabase(name, backupPath); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Failed to backup database")
			continue
		}

		if err := s.verifyBackup(backupPath); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Backup verification failed")
			os.Remove(backupPath)
			continue
		}
		succeeded++
	}

	if err := s.rotateSnapshots(); err != nil {
		s.log.Error().Err(err).Msg("Failed to rotate snapshots")
	}

	s.log.Info().
		Int("databases", succeeded).
		Dur("duration_ms", time.Since(startTime)).
		Str("snapshot", snapshotDir).
		Msg("Local backup completed")

	return snapshotDir, nil
}

// BackupDatabase snapshots one database using SQLite's VACUUM INTO.
// The copy is atomic and carries no WAL sidecar files.
func (s *BackupService) BackupDatabase(name, backupPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %s not found", name)
	}

	_, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath))
	if err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", name).
		Float64("size_mb", float64(info.Size())/1024/1024).
		Msg("Backup created")

	return nil
}

// DatabaseNames returns the names of all managed databases.
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// verifyBackup runs an integrity check against a fresh snapshot.
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// rotateSnapshots prunes old snapshot directories beyond the retention count.
func (s *BackupService) rotateSnapshots() error {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) <= s.keep {
		return nil
	}

	// Names are timestamps, so the lexical order is the time order.
	sort.Strings(dirs)
	for _, dir := range dirs[:len(dirs)-s.keep] {
		path := filepath.Join(s.backupDir, dir)
		if err := os.RemoveAll(path); err != nil {
			s.log.Error().Err(err).Str("snapshot", path).Msg("Failed to delete old snapshot")
			continue
		}
		s.log.Info().Str("snapshot", path).Msg("Deleted old snapshot")
	}

	return nil
}
