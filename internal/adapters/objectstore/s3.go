// Package objectstore adapts an S3-compatible bucket service for asset
// retrieval and manifest archival.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
)

const downloadTimeout = 30 * time.Minute // videos can be large

// Client implements ports.AssetRetriever and ports.ManifestUploader against
// an S3-compatible endpoint.
type Client struct {
	downloader     *s3manager.Downloader
	uploader       *s3manager.Uploader
	endpoint       string
	manifestBucket string
	logger         *zap.Logger
}

// NewClient builds a Client from environment configuration:
// STORAGE_ACCESS_KEY_ID, STORAGE_SECRET_ACCESS_KEY, STORAGE_ENDPOINT,
// STORAGE_REGION (default "auto") and MANIFEST_BUCKET.
func NewClient(logger *zap.Logger) (*Client, error) {
	accessKey := os.Getenv("STORAGE_ACCESS_KEY_ID")
	secretKey := os.Getenv("STORAGE_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("STORAGE_ENDPOINT")
	if accessKey == "" || secretKey == "" || endpoint == "" {
		return nil, fmt.Errorf("STORAGE_ACCESS_KEY_ID, STORAGE_SECRET_ACCESS_KEY and STORAGE_ENDPOINT must be set")
	}
	region := os.Getenv("STORAGE_REGION")
	if region == "" {
		region = "auto"
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Client{
		downloader:     s3manager.NewDownloader(sess),
		uploader:       s3manager.NewUploader(sess),
		endpoint:       endpoint,
		manifestBucket: os.Getenv("MANIFEST_BUCKET"),
		logger:         logger,
	}, nil
}

// Acquire downloads the referenced object to a uniquely named temporary
// file and returns its path. The caller owns the file and must Release it.
func (c *Client) Acquire(ctx context.Context, ref domain.AssetRef) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	ext := filepath.Ext(ref.ObjectKey)
	f, err := os.CreateTemp("", fmt.Sprintf("asset_%s_*%s", uuid.New().String(), ext))
	if err != nil {
		return "", &domain.RetrievalError{AssetID: ref.ID, Err: err}
	}

	op := func() error {
		// Drop any partial bytes from a previous attempt.
		if err := f.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}
		_, err := c.downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
			Bucket: aws.String(ref.Bucket),
			Key:    aws.String(ref.ObjectKey),
		})
		if isNotFound(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		f.Close()
		c.Release(f.Name())
		if isNotFound(err) {
			return "", &domain.NotFoundError{Resource: "asset object", ID: ref.ID}
		}
		return "", &domain.RetrievalError{AssetID: ref.ID, Err: err}
	}

	if err := f.Close(); err != nil {
		c.Release(f.Name())
		return "", &domain.RetrievalError{AssetID: ref.ID, Err: err}
	}
	return f.Name(), nil
}

// Release deletes a temporary asset file. Best effort.
func (c *Client) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove temporary asset file",
			zap.String("path", path),
			zap.Error(err))
	}
}

// UploadManifest stores a manifest document in the manifest bucket and
// returns its public URL.
func (c *Client) UploadManifest(ctx context.Context, key string, content []byte) (string, error) {
	if c.manifestBucket == "" {
		return "", fmt.Errorf("MANIFEST_BUCKET not configured")
	}
	_, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(c.manifestBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/markdown"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload manifest: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.manifestBucket, key), nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	}
	return false
}
