package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const uploadTimeout = 10 * time.Minute

// BackupJob runs the local snapshot and, when configured, the cloud upload.
// A failed upload never invalidates the local snapshot.
type BackupJob struct {
	local  *BackupService
	remote *S3BackupService // nil when no bucket is configured
	log    zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(local *BackupService, remote *S3BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		local:  local,
		remote: remote,
		log:    log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes one backup cycle.
func (j *BackupJob) Run() error {
	if _, err := j.local.Backup(); err != nil {
		return err
	}

	if j.remote == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	if err := j.remote.CreateAndUploadBackup(ctx); err != nil {
		j.log.Error().Err(err).Msg("Cloud backup failed")
		return nil
	}

	if err := j.remote.RotateArchives(ctx); err != nil {
		j.log.Error().Err(err).Msg("Archive rotation failed")
	}

	return nil
}
