package localstorage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
)

type fakeUploader struct {
	url  string
	err  error
	keys []string
}

func (u *fakeUploader) UploadManifest(ctx context.Context, key string, content []byte) (string, error) {
	u.keys = append(u.keys, key)
	return u.url, u.err
}

func TestManifestStore_PersistLocalOnly(t *testing.T) {
	dir := t.TempDir()
	store := NewManifestStore(dir, nil, zap.NewNop())

	job := domain.Job{ID: "J1"}
	localPath, remoteURL, err := store.Persist(context.Background(), job, "# manifest\n", "success")
	require.NoError(t, err)
	assert.Empty(t, remoteURL)

	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, "# manifest\n", string(data))

	name := filepath.Base(localPath)
	assert.Regexp(t, `^manifest_J1_\d{8}_\d{6}_success\.md$`, name)
}

func TestManifestStore_RemoteUpload(t *testing.T) {
	uploader := &fakeUploader{url: "https://bucket/manifests/x.md"}
	store := NewManifestStore(t.TempDir(), uploader, zap.NewNop())

	_, remoteURL, err := store.Persist(context.Background(), domain.Job{ID: "J1"}, "m", "failed")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket/manifests/x.md", remoteURL)
	require.Len(t, uploader.keys, 1)
	assert.Regexp(t, `^manifests/manifest_J1_.*_failed\.md$`, uploader.keys[0])
}

func TestManifestStore_RemoteFailureIsBestEffort(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unreachable")}
	store := NewManifestStore(t.TempDir(), uploader, zap.NewNop())

	localPath, remoteURL, err := store.Persist(context.Background(), domain.Job{ID: "J1"}, "m", "success")
	require.NoError(t, err)
	assert.Empty(t, remoteURL)
	assert.FileExists(t, localPath)
}

func TestManifestStore_LocalWriteFailure(t *testing.T) {
	// Use a regular file as the base directory so MkdirAll fails.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	store := NewManifestStore(blocked, nil, zap.NewNop())

	_, _, err := store.Persist(context.Background(), domain.Job{ID: "J1"}, "m", "success")
	require.Error(t, err)
	var perr *domain.PersistError
	assert.True(t, errors.As(err, &perr))
}
