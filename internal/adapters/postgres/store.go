// Package postgres implements the record store contract over the
// publish_schedule and assets tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
)

const jobColumns = `id, asset_id, platform, title, description, tags, scheduled_at,
	published, publish_url, publish_manifest, manifest_url, publish_error`

// Store implements ports.RecordStore against Postgres.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Connect opens the database named by DATABASE_URL, retrying the initial
// ping with exponential backoff.
func Connect(ctx context.Context, logger *zap.Logger) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database ping failed, retrying", zap.Error(err))
			return err
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	logger.Info("database connection established")
	return db, nil
}

// NewStore creates a Store over an established connection.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the publish_schedule and assets tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		bucket TEXT NOT NULL,
		object_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS publish_schedule (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		platform TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		scheduled_at TIMESTAMPTZ NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		publish_url TEXT,
		publish_manifest TEXT,
		manifest_url TEXT,
		publish_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_publish_schedule_due
		ON publish_schedule (scheduled_at) WHERE NOT published;
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &domain.StoreError{Op: "ensure schema", Err: err}
	}
	return nil
}

// FetchDue returns unpublished jobs whose scheduled time has passed, oldest
// first. The id tie-break keeps ordering stable within a batch.
func (s *Store) FetchDue(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM publish_schedule
		WHERE published = FALSE AND scheduled_at <= $1
		ORDER BY scheduled_at ASC, id ASC`, jobColumns)

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, &domain.StoreError{Op: "fetch due jobs", Err: err}
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan job row", Err: err}
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "fetch due jobs", Err: err}
	}
	return jobs, nil
}

// UpdateStatus applies the non-nil fields of update to one row and returns
// the post-update record.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, update domain.StatusUpdate) (domain.Job, error) {
	set, args := buildUpdate(update)
	if len(set) == 0 {
		return domain.Job{}, &domain.StoreError{Op: "update status", Err: errors.New("no fields to update")}
	}
	args = append(args, jobID)

	query := fmt.Sprintf(`UPDATE publish_schedule SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), jobColumns)

	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, &domain.NotFoundError{Resource: "job", ID: jobID}
		}
		return domain.Job{}, &domain.StoreError{Op: "update status", Err: err}
	}
	return job, nil
}

// GetAsset resolves an asset id to its storage location.
func (s *Store) GetAsset(ctx context.Context, assetID string) (domain.AssetRef, error) {
	var ref domain.AssetRef
	err := s.db.QueryRowContext(ctx,
		`SELECT id, bucket, object_key FROM assets WHERE id = $1`, assetID).
		Scan(&ref.ID, &ref.Bucket, &ref.ObjectKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AssetRef{}, &domain.NotFoundError{Resource: "asset", ID: assetID}
		}
		return domain.AssetRef{}, &domain.StoreError{Op: "get asset", Err: err}
	}
	return ref, nil
}

// buildUpdate assembles the SET clause for the non-nil fields of update,
// with placeholders numbered from $1.
func buildUpdate(update domain.StatusUpdate) (set []string, args []interface{}) {
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Published != nil {
		add("published", *update.Published)
	}
	if update.PublishURL != nil {
		add("publish_url", *update.PublishURL)
	}
	if update.PublishManifest != nil {
		add("publish_manifest", *update.PublishManifest)
	}
	if update.ManifestURL != nil {
		add("manifest_url", *update.ManifestURL)
	}
	if update.PublishError != nil {
		add("publish_error", *update.PublishError)
	}
	return set, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (domain.Job, error) {
	var (
		job      domain.Job
		platform string
		tags     pq.StringArray
		url      sql.NullString
		manifest sql.NullString
		manURL   sql.NullString
		pubErr   sql.NullString
	)
	err := row.Scan(
		&job.ID, &job.AssetID, &platform, &job.Title, &job.Description,
		&tags, &job.ScheduledAt, &job.Published, &url, &manifest, &manURL, &pubErr,
	)
	if err != nil {
		return domain.Job{}, err
	}
	job.Platform = domain.Platform(platform)
	job.Tags = []string(tags)
	job.PublishURL = url.String
	job.PublishManifest = manifest.String
	job.ManifestURL = manURL.String
	job.PublishError = pubErr.String
	return job, nil
}
