package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	uploadedKey  string
	uploadedBody []byte
	objects      []types.Object
	deleted      []string
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploadedKey = key
	f.uploadedBody = data
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]types.Object, error) {
	matched := make([]types.Object, 0, len(f.objects))
	for _, obj := range f.objects {
		if obj.Key != nil && strings.HasPrefix(*obj.Key, prefix) {
			matched = append(matched, obj)
		}
	}
	return matched, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func archiveObject(age time.Duration) types.Object {
	stamp := time.Now().Add(-age).Format("2006-01-02-150405")
	return types.Object{
		Key:  aws.String(archivePrefix + stamp + ".tar.gz"),
		Size: aws.Int64(1024),
	}
}

func TestCreateAndUploadBackup(t *testing.T) {
	dataDir := t.TempDir()
	local := NewBackupService(testDatabases(t), t.TempDir(), 7, testLogger())
	store := &fakeStore{}
	svc := NewS3BackupService(store, local, dataDir, 30, testLogger())

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.uploadedKey, archivePrefix))
	assert.True(t, strings.HasSuffix(store.uploadedKey, ".tar.gz"))
	require.NotEmpty(t, store.uploadedBody)

	// archive carries the snapshot plus the checksum manifest
	gz, err := gzip.NewReader(bytes.NewReader(store.uploadedBody))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := map[string][]byte{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[header.Name] = data
	}

	require.Contains(t, entries, "main.db")
	require.Contains(t, entries, "backup-metadata.json")

	var metadata ArchiveMetadata
	require.NoError(t, json.Unmarshal(entries["backup-metadata.json"], &metadata))
	require.Len(t, metadata.Databases, 1)
	assert.Equal(t, "main", metadata.Databases[0].Name)
	assert.Len(t, metadata.Databases[0].Checksum, 64)
	assert.Equal(t, int64(len(entries["main.db"])), metadata.Databases[0].SizeBytes)
}

func TestListArchivesSortsNewestFirst(t *testing.T) {
	store := &fakeStore{objects: []types.Object{
		archiveObject(72 * time.Hour),
		archiveObject(time.Hour),
		archiveObject(24 * time.Hour),
		{Key: aws.String(archivePrefix + "not-a-timestamp.tar.gz")},
	}}
	svc := NewS3BackupService(store, nil, "", 30, testLogger())

	archives, err := svc.ListArchives(context.Background())
	require.NoError(t, err)

	require.Len(t, archives, 3)
	assert.True(t, archives[0].Timestamp.After(archives[1].Timestamp))
	assert.True(t, archives[1].Timestamp.After(archives[2].Timestamp))
	assert.Equal(t, int64(1024), archives[0].SizeBytes)
}

func TestRotateArchivesPrunesBeyondRetention(t *testing.T) {
	oldest := archiveObject(90 * 24 * time.Hour)
	stale := archiveObject(40 * 24 * time.Hour)
	store := &fakeStore{objects: []types.Object{
		oldest,
		stale,
		archiveObject(20 * 24 * time.Hour),
		archiveObject(48 * time.Hour),
		archiveObject(time.Hour),
	}}
	svc := NewS3BackupService(store, nil, "", 30, testLogger())

	require.NoError(t, svc.RotateArchives(context.Background()))

	assert.ElementsMatch(t, []string{*oldest.Key, *stale.Key}, store.deleted)
}

func TestRotateArchivesKeepsMinimum(t *testing.T) {
	store := &fakeStore{objects: []types.Object{
		archiveObject(400 * 24 * time.Hour),
		archiveObject(200 * 24 * time.Hour),
		archiveObject(100 * 24 * time.Hour),
	}}
	svc := NewS3BackupService(store, nil, "", 30, testLogger())

	require.NoError(t, svc.RotateArchives(context.Background()))

	assert.Empty(t, store.deleted)
}

func TestRotateArchivesZeroRetentionKeepsAll(t *testing.T) {
	store := &fakeStore{objects: []types.Object{
		archiveObject(400 * 24 * time.Hour),
		archiveObject(300 * 24 * time.Hour),
		archiveObject(200 * 24 * time.Hour),
		archiveObject(100 * 24 * time.Hour),
	}}
	svc := NewS3BackupService(store, nil, "", 0, testLogger())

	require.NoError(t, svc.RotateArchives(context.Background()))

	assert.Empty(t, store.deleted)
}
