package platforms

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vidpublisher/internal/core/domain"
)

// WebsiteAdapter publishes a video as an embeddable page on the site. The
// asset is already in the object store, so no upload round-trip happens
// here: the adapter derives the public and embed URLs from the asset id.
type WebsiteAdapter struct {
	baseURL string
}

// NewWebsiteAdapter reads WEBSITE_BASE_URL from the environment, defaulting
// to https://example.com.
func NewWebsiteAdapter() *WebsiteAdapter {
	baseURL := os.Getenv("WEBSITE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://example.com"
	}
	return &WebsiteAdapter{baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload returns the page URL and iframe embed code for the asset.
func (a *WebsiteAdapter) Upload(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult {
	if job.AssetID == "" {
		return domain.DispatchResult{Error: "website publish failed: no asset reference on job"}
	}
	return domain.DispatchResult{
		Success:   true,
		URL:       fmt.Sprintf("%s/videos/%s", a.baseURL, job.AssetID),
		EmbedCode: fmt.Sprintf(`<iframe src="%s/embed/%s"></iframe>`, a.baseURL, job.AssetID),
	}
}
