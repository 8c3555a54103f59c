package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"vidpublisher/internal/core/domain"
)

const (
	graphBaseURL      = "https://graph.facebook.com/v18.0"
	graphVideoBaseURL = "https://graph-video.facebook.com/v18.0"
)

// FacebookAdapter publishes videos to a Facebook page via the Graph API.
type FacebookAdapter struct {
	accessToken  string
	pageID       string
	videoBaseURL string
	client       *http.Client
}

// NewFacebookAdapter reads META_ACCESS_TOKEN and FACEBOOK_PAGE_ID from the
// environment.
func NewFacebookAdapter() (*FacebookAdapter, error) {
	token := os.Getenv("META_ACCESS_TOKEN")
	pageID := os.Getenv("FACEBOOK_PAGE_ID")
	if token == "" || pageID == "" {
		return nil, fmt.Errorf("META_ACCESS_TOKEN and FACEBOOK_PAGE_ID must be set")
	}
	return &FacebookAdapter{
		accessToken:  token,
		pageID:       pageID,
		videoBaseURL: graphVideoBaseURL,
		client:       &http.Client{Timeout: 30 * time.Minute},
	}, nil
}

// Upload posts the video to the configured page in a single call.
func (a *FacebookAdapter) Upload(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult {
	endpoint := fmt.Sprintf("%s/%s/videos", a.videoBaseURL, a.pageID)
	result, err := postVideoMultipart(ctx, a.client, endpoint, "file", localPath, map[string]string{
		"title":        job.Title,
		"description":  job.Description,
		"access_token": a.accessToken,
	})
	if err != nil {
		return domain.DispatchResult{Error: fmt.Sprintf("facebook upload failed: %v", err)}
	}
	videoID, ok := result["id"].(string)
	if !ok || videoID == "" {
		return domain.DispatchResult{Error: "facebook upload failed: " + apiError(result, "no video id in response")}
	}
	return domain.DispatchResult{
		Success: true,
		URL:     fmt.Sprintf("https://www.facebook.com/%s/videos/%s", a.pageID, videoID),
	}
}

// InstagramAdapter publishes reels via the Graph API's two-phase protocol:
// a container upload followed by a media_publish commit. Failure at either
// phase fails the dispatch with a phase-specific message.
type InstagramAdapter struct {
	accessToken  string
	igUserID     string
	graphBaseURL string
	videoBaseURL string
	client       *http.Client
}

// NewInstagramAdapter reads META_ACCESS_TOKEN and INSTAGRAM_USER_ID from
// the environment.
func NewInstagramAdapter() (*InstagramAdapter, error) {
	token := os.Getenv("META_ACCESS_TOKEN")
	igUserID := os.Getenv("INSTAGRAM_USER_ID")
	if token == "" || igUserID == "" {
		return nil, fmt.Errorf("META_ACCESS_TOKEN and INSTAGRAM_USER_ID must be set")
	}
	return &InstagramAdapter{
		accessToken:  token,
		igUserID:     igUserID,
		graphBaseURL: graphBaseURL,
		videoBaseURL: graphVideoBaseURL,
		client:       &http.Client{Timeout: 30 * time.Minute},
	}, nil
}

// Upload runs the container-then-publish sequence.
func (a *InstagramAdapter) Upload(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult {
	caption := job.Title
	if job.Description != "" {
		caption += "\n\n" + job.Description
	}

	// Phase 1: upload the video into a media container.
	uploadEndpoint := fmt.Sprintf("%s/%s/media", a.videoBaseURL, a.igUserID)
	result, err := postVideoMultipart(ctx, a.client, uploadEndpoint, "video", localPath, map[string]string{
		"media_type":   "VIDEO",
		"caption":      caption,
		"access_token": a.accessToken,
	})
	if err != nil {
		return domain.DispatchResult{Error: fmt.Sprintf("instagram upload phase failed: %v", err)}
	}
	containerID, ok := result["id"].(string)
	if !ok || containerID == "" {
		return domain.DispatchResult{Error: "instagram upload phase failed: " + apiError(result, "no container id in response")}
	}

	// Phase 2: commit the container.
	publishEndpoint := fmt.Sprintf("%s/%s/media_publish", a.graphBaseURL, a.igUserID)
	result, err = postForm(ctx, a.client, publishEndpoint, url.Values{
		"creation_id":  {containerID},
		"access_token": {a.accessToken},
	})
	if err != nil {
		return domain.DispatchResult{Error: fmt.Sprintf("instagram publish phase failed: %v", err)}
	}
	mediaID, ok := result["id"].(string)
	if !ok || mediaID == "" {
		return domain.DispatchResult{Error: "instagram publish phase failed: " + apiError(result, "no media id in response")}
	}

	return domain.DispatchResult{
		Success: true,
		URL:     "https://www.instagram.com/reel/" + mediaID,
	}
}
