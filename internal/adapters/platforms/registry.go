// Package platforms houses the dispatch registry and the per-platform
// upload adapters. Every adapter converts all failures into a
// DispatchResult; nothing escapes an adapter boundary as an error or panic.
package platforms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
	"vidpublisher/internal/core/ports"
)

// Registry maps platform identifiers to their upload adapters.
type Registry struct {
	adapters map[domain.Platform]ports.Platform
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		adapters: make(map[domain.Platform]ports.Platform),
		logger:   logger,
	}
}

// Register binds a platform id to an adapter, replacing any previous
// binding for the same id.
func (r *Registry) Register(id domain.Platform, adapter ports.Platform) {
	r.adapters[id] = adapter
}

// Dispatch routes the job to the adapter registered for its platform.
// An unrecognized platform id is a dispatch-level failure, not an error.
func (r *Registry) Dispatch(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult {
	adapter, ok := r.adapters[job.Platform]
	if !ok {
		return domain.DispatchResult{
			Error: fmt.Sprintf("unsupported platform: %s", job.Platform),
		}
	}
	r.logger.Info("dispatching job",
		zap.String("job_id", job.ID),
		zap.String("platform", string(job.Platform)))
	return adapter.Upload(ctx, job, localPath)
}
