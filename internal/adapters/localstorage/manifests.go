package localstorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
	"vidpublisher/internal/core/ports"
)

// ManifestStore implements ports.ManifestStore on the local filesystem,
// with an optional remote uploader for durable copies.
type ManifestStore struct {
	baseDir  string
	uploader ports.ManifestUploader
	logger   *zap.Logger
}

// NewManifestStore creates a ManifestStore rooted at baseDir. uploader may
// be nil, in which case manifests are kept locally only.
func NewManifestStore(baseDir string, uploader ports.ManifestUploader, logger *zap.Logger) *ManifestStore {
	return &ManifestStore{baseDir: baseDir, uploader: uploader, logger: logger}
}

// Persist writes the manifest locally, then attempts a best-effort remote
// upload. A local write failure is returned as a PersistError; a remote
// upload failure is only logged and leaves remoteURL empty.
func (s *ManifestStore) Persist(ctx context.Context, job domain.Job, content, status string) (string, string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", "", &domain.PersistError{Path: s.baseDir, Err: err}
	}

	name := fmt.Sprintf("manifest_%s_%s_%s.md", job.ID, time.Now().UTC().Format("20060102_150405"), status)
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", &domain.PersistError{Path: path, Err: err}
	}

	var remoteURL string
	if s.uploader != nil {
		url, err := s.uploader.UploadManifest(ctx, "manifests/"+name, []byte(content))
		if err != nil {
			s.logger.Warn("remote manifest upload failed",
				zap.String("job_id", job.ID),
				zap.String("manifest", name),
				zap.Error(err))
		} else {
			remoteURL = url
		}
	}

	return path, remoteURL, nil
}
