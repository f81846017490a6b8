package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const archivePrefix = "marketpulse-backup-"

// minArchivesToKeep is the floor for cloud rotation. The newest archives
// survive regardless of age.
const minArchivesToKeep = 3

// objectStore is the slice of the S3 client this service needs.
type objectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// S3BackupService archives database snapshots and uploads them to object
// storage. Construct it only when a bucket is configured; a nil service
// means cloud backups are off.
type S3BackupService struct {
	store         objectStore
	backups       *BackupService
	dataDir       string
	retentionDays int // 0 keeps every archive beyond the minimum
	log           zerolog.Logger
}

// ArchiveMetadata describes the contents of one uploaded archive.
type ArchiveMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes a single database file inside an archive.
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// NewS3BackupService creates a new cloud backup service
func NewS3BackupService(store objectStore, backups *BackupService, dataDir string, retentionDays int, log zerolog.Logger) *S3BackupService {
	return &S3BackupService{
		store:         store,
		backups:       backups,
		dataDir:       dataDir,
		retentionDays: retentionDays,
		log:           log.With().Str("service", "s3_backup").Logger(),
	}
}

// ArchiveInfo describes one uploaded archive object.
type ArchiveInfo struct {
	Key       string
	Timestamp time.Time
	SizeBytes int64
}

// ListArchives returns the uploaded archives, newest first. Objects whose
// keys don't carry a parseable timestamp are skipped.
func (s *S3BackupService) ListArchives(ctx context.Context) ([]ArchiveInfo, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	archives := make([]ArchiveInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key
		if !strings.HasSuffix(key, ".tar.gz") {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(key, archivePrefix), ".tar.gz")
		timestamp, err := time.Parse("2006-01-02-150405", stamp)
		if err != nil {
			s.log.Warn().Str("key", key).Msg("Skipping archive with unparseable timestamp")
			continue
		}

		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		archives = append(archives, ArchiveInfo{Key: key, Timestamp: timestamp, SizeBytes: size})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Timestamp.After(archives[j].Timestamp)
	})

	return archives, nil
}

// RotateArchives deletes archives older than the retention window. The
// newest minArchivesToKeep always survive, and a zero retention keeps
// everything.
func (s *S3BackupService) RotateArchives(ctx context.Context) error {
	if s.retentionDays <= 0 {
		return nil
	}

	archives, err := s.ListArchives(ctx)
	if err != nil {
		return err
	}
	if len(archives) <= minArchivesToKeep {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, archive := range archives[minArchivesToKeep:] {
		if !archive.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, archive.Key); err != nil {
			s.log.Error().Err(err).Str("key", archive.Key).Msg("Failed to delete old archive")
			continue
		}
		s.log.Info().
			Str("key", archive.Key).
			Time("timestamp", archive.Timestamp).
			Msg("Deleted old archive")
		deleted++
	}

	if deleted > 0 {
		s.log.Info().
			Int("deleted", deleted).
			Int("remaining", len(archives)-deleted).
			Msg("Archive rotation completed")
	}

	return nil
}

// CreateAndUploadBackup snapshots every database into a staging directory,
// wraps the set plus a checksum manifest into a tar.gz, and uploads it.
func (s *S3BackupService) CreateAndUploadBackup(ctx context.Context) error {
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := ArchiveMetadata{Timestamp: time.Now().UTC()}
	files := make([]string, 0)

	for _, name := range s.backups.DatabaseNames() {
		dbPath := filepath.Join(stagingDir, name+".db")

		if err := s.backups.BackupDatabase(name, dbPath); err != nil {
			return fmt.Errorf("failed to backup %s: %w", name, err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s backup: %w", name, err)
		}
		checksum, err := fileChecksum(dbPath)
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", name, err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      name,
			Filename:  name + ".db",
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, dbPath)
	}

	metadataPath := filepath.Join(stagingDir, "backup-metadata.json")
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataPath)

	archiveName := archivePrefix + time.Now().Format("2006-01-02-150405") + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, files); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	archiveInfo, _ := os.Stat(archivePath)
	s.log.Info().
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Cloud backup completed")

	return nil
}

// fileChecksum computes the hex SHA256 of a file.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeMetadata(path string, metadata ArchiveMetadata) error {
	sort.Slice(metadata.Databases, func(i, j int) bool {
		return metadata.Databases[i].Name < metadata.Databases[j].Name
	})

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// createArchive writes the named files into a flat tar.gz.
func createArchive(archivePath string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, file := range files {
		if strings.HasSuffix(file, ".tar.gz") {
			continue
		}
		if err := addToArchive(tw, file); err != nil {
			return fmt.Errorf("failed to add %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}

func addToArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Mode:    0644,
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
