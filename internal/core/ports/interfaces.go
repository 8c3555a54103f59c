package ports

import (
	"context"
	"time"

	"vidpublisher/internal/core/domain"
)

// RecordStore defines the contract for the durable job and asset tables.
type RecordStore interface {
	// FetchDue returns all jobs with published=false and scheduled_at <= now,
	// ordered by scheduled_at ascending.
	FetchDue(ctx context.Context, now time.Time) ([]domain.Job, error)

	// UpdateStatus applies a partial update to one job row, atomically, and
	// returns the post-update record so the caller can verify the write.
	UpdateStatus(ctx context.Context, jobID string, update domain.StatusUpdate) (domain.Job, error)

	// GetAsset resolves an asset id to its object-store location.
	GetAsset(ctx context.Context, assetID string) (domain.AssetRef, error)
}

// AssetRetriever resolves asset references to local temporary files.
type AssetRetriever interface {
	// Acquire downloads the asset to a uniquely named temporary file and
	// returns its path. The caller must call Release exactly once.
	Acquire(ctx context.Context, ref domain.AssetRef) (string, error)

	// Release deletes the temporary file. Best effort: failures are logged,
	// never returned.
	Release(path string)
}

// Platform defines the upload contract one external target implements.
// Upload never panics and never returns a Go error: every failure, including
// network and auth problems, surfaces as DispatchResult.Error.
type Platform interface {
	Upload(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult
}

// Dispatcher routes a job to the adapter registered for its platform id.
type Dispatcher interface {
	Dispatch(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult
}

// ManifestStore persists a built manifest. The local write must succeed or
// the job's recording step fails; the remote upload is best effort and an
// empty remoteURL means it was skipped or failed.
type ManifestStore interface {
	Persist(ctx context.Context, job domain.Job, content, status string) (localPath, remoteURL string, err error)
}

// ManifestUploader pushes a manifest document to remote durable storage.
type ManifestUploader interface {
	UploadManifest(ctx context.Context, key string, content []byte) (string, error)
}
