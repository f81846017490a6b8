package reliability

import (
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/database"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testDatabases(t *testing.T) map[string]*database.DB {
	dir := t.TempDir()

	db, err := database.New(database.Config{
		Path: filepath.Join(dir, "main.db"),
		Name: "main",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec(`CREATE TABLE samples (id INTEGER PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO samples (value) VALUES ('one'), ('two')`)
	require.NoError(t, err)

	return map[string]*database.DB{"main": db}
}

func TestBackup(t *testing.T) {
	backupDir := t.TempDir()
	svc := NewBackupService(testDatabases(t), backupDir, 7, testLogger())

	snapshotDir, err := svc.Backup()
	require.NoError(t, err)

	backupPath := filepath.Join(snapshotDir, "main.db")
	require.FileExists(t, backupPath)

	// snapshot is a standalone readable database
	copyDB, err := sql.Open("sqlite", backupPath)
	require.NoError(t, err)
	defer copyDB.Close()

	var count int
	require.NoError(t, copyDB.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestBackupRotation(t *testing.T) {
	backupDir := t.TempDir()
	databases := testDatabases(t)

	// fabricate old snapshot sets around a low retention limit
	for _, stamp := range []string{"2024-01-01-000000", "2024-01-02-000000", "2024-01-03-000000"} {
		require.NoError(t, os.MkdirAll(filepath.Join(backupDir, stamp), 0755))
	}

	svc := NewBackupService(databases, backupDir, 2, testLogger())
	_, err := svc.Backup()
	require.NoError(t, err)

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// the freshest snapshot survives rotation
	names := []string{entries[0].Name(), entries[1].Name()}
	assert.NotContains(t, names, "2024-01-01-000000")
	assert.NotContains(t, names, "2024-01-02-000000")
}

func TestBackupDatabaseUnknownName(t *testing.T) {
	svc := NewBackupService(testDatabases(t), t.TempDir(), 7, testLogger())

	err := svc.BackupDatabase("nope", filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}
