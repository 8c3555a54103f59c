// Package service contains the job processor: the orchestration core that
// drives each due job through retrieval, dispatch, manifest generation and
// status recording.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vidpublisher/internal/core/domain"
	"vidpublisher/internal/core/ports"
	"vidpublisher/internal/manifest"
)

// Processor runs due-job sweeps. One job's failure never aborts the batch;
// a temporary asset acquired for a job is always released, whichever
// terminal branch the job takes.
type Processor struct {
	store       ports.RecordStore
	retriever   ports.AssetRetriever
	dispatcher  ports.Dispatcher
	manifests   ports.ManifestStore
	logger      *zap.Logger
	concurrency int
}

// NewProcessor creates a Processor. concurrency < 2 means jobs are
// processed sequentially, which is the default mode of operation.
func NewProcessor(
	store ports.RecordStore,
	retriever ports.AssetRetriever,
	dispatcher ports.Dispatcher,
	manifests ports.ManifestStore,
	logger *zap.Logger,
	concurrency int,
) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		store:       store,
		retriever:   retriever,
		dispatcher:  dispatcher,
		manifests:   manifests,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run executes one due-job sweep at the given time. Only a failure of the
// due-job query itself is returned as an error; per-job failures are
// recorded against the job and counted in the summary.
func (p *Processor) Run(ctx context.Context, now time.Time) (domain.BatchSummary, error) {
	jobs, err := p.store.FetchDue(ctx, now)
	if err != nil {
		return domain.BatchSummary{}, fmt.Errorf("fetching due jobs: %w", err)
	}
	p.logger.Info("found jobs scheduled for publishing", zap.Int("count", len(jobs)))

	summary := domain.BatchSummary{Processed: len(jobs)}
	if p.concurrency <= 1 {
		for _, job := range jobs {
			if !p.processOne(ctx, job) {
				summary.Failed++
			}
		}
	} else {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.concurrency)
		for _, job := range jobs {
			job := job
			g.Go(func() error {
				if !p.processOne(gctx, job) {
					mu.Lock()
					summary.Failed++
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
	}

	p.logger.Info("publisher sweep complete",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// processOne drives a single job to a terminal state and reports whether it
// ended published with its outcome recorded.
func (p *Processor) processOne(ctx context.Context, job domain.Job) (succeeded bool) {
	log := p.logger.With(
		zap.String("job_id", job.ID),
		zap.String("platform", string(job.Platform)))
	log.Info("processing job", zap.Time("scheduled_at", job.ScheduledAt))

	defer func() {
		// Recording itself must not take the batch down.
		if r := recover(); r != nil {
			log.Error("panic while recording job outcome", zap.Any("panic", r))
			succeeded = false
		}
	}()

	result := p.dispatchJob(ctx, job, log)
	return p.recordOutcome(ctx, job, result, log)
}

// dispatchJob covers the Retrieving and Dispatching states. It never
// returns an error or panics: every failure becomes a DispatchResult.
func (p *Processor) dispatchJob(ctx context.Context, job domain.Job, log *zap.Logger) (res domain.DispatchResult) {
	var acquired string
	defer func() {
		if acquired != "" {
			p.retriever.Release(acquired)
		}
		if r := recover(); r != nil {
			log.Error("panic during job processing", zap.Any("panic", r))
			res = domain.DispatchResult{Error: fmt.Sprintf("unexpected error: %v", r)}
		}
	}()

	// A prior attempt may have published without the record reflecting it.
	// Re-recording the stored URL avoids duplicating remote content.
	if job.PublishURL != "" {
		log.Warn("job carries a publish url from a prior attempt, skipping re-dispatch",
			zap.String("publish_url", job.PublishURL))
		return domain.DispatchResult{Success: true, URL: job.PublishURL}
	}

	ref, err := p.store.GetAsset(ctx, job.AssetID)
	if err != nil {
		log.Error("resolving asset", zap.String("asset_id", job.AssetID), zap.Error(err))
		return domain.DispatchResult{Error: fmt.Sprintf("resolving asset: %v", err)}
	}

	path, err := p.retriever.Acquire(ctx, ref)
	if err != nil {
		log.Error("acquiring asset", zap.String("asset_id", job.AssetID), zap.Error(err))
		return domain.DispatchResult{Error: fmt.Sprintf("acquiring asset: %v", err)}
	}
	acquired = path

	return p.dispatcher.Dispatch(ctx, job, path)
}

// recordOutcome covers the Recording state: manifest build and persistence
// followed by the status update, with a reconciliation check on the
// returned record.
func (p *Processor) recordOutcome(ctx context.Context, job domain.Job, result domain.DispatchResult, log *zap.Logger) bool {
	status := manifest.StatusFailed
	if result.Success {
		status = manifest.StatusSuccess
	}
	content := manifest.Build(job, result, status, time.Now().UTC())
	localPath, remoteURL, persistErr := p.manifests.Persist(ctx, job, content, status)
	if persistErr != nil {
		log.Error("persisting manifest", zap.Error(persistErr))
	} else {
		log.Info("manifest written", zap.String("path", localPath))
	}

	var update domain.StatusUpdate
	wantPublished := false
	switch {
	case persistErr != nil:
		// The manifest is the audit record: without it the attempt is a
		// failure even when the dispatch succeeded.
		update = domain.StatusUpdate{
			Published:    domain.BoolPtr(false),
			PublishError: domain.StringPtr(fmt.Sprintf("persisting manifest: %v", persistErr)),
		}
	case result.Success:
		wantPublished = true
		update = domain.StatusUpdate{
			Published:       domain.BoolPtr(true),
			PublishURL:      domain.StringPtr(result.URL),
			PublishManifest: domain.StringPtr(content),
			PublishError:    domain.StringPtr(""),
		}
		if remoteURL != "" {
			update.ManifestURL = domain.StringPtr(remoteURL)
		}
	default:
		update = domain.StatusUpdate{
			Published:    domain.BoolPtr(false),
			PublishError: domain.StringPtr(result.Error),
		}
	}

	updated, err := p.store.UpdateStatus(ctx, job.ID, update)
	if err != nil {
		log.Error("updating job status", zap.Error(err))
		return false
	}
	if updated.Published != wantPublished {
		// Guards against silent policy failures in the store: the write
		// "succeeded" but the returned row disagrees with what we asked for.
		log.Error("store did not reflect requested published state",
			zap.Bool("requested", wantPublished),
			zap.Bool("stored", updated.Published))
		return false
	}

	log.Info("job status updated", zap.Bool("published", updated.Published))
	return wantPublished
}
