package domain

import "time"

// Platform identifies an external publishing target.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformWebsite   Platform = "website"
)

// Job represents one scheduled publish action persisted in the record store.
type Job struct {
	ID          string    `json:"id"`
	AssetID     string    `json:"asset_id"`
	Platform    Platform  `json:"platform"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	ScheduledAt time.Time `json:"scheduled_at"`

	// Result fields. A successful attempt sets Published, PublishURL,
	// PublishManifest and ManifestURL and clears PublishError; a failed
	// attempt sets only PublishError.
	Published       bool   `json:"published"`
	PublishURL      string `json:"publish_url"`
	PublishManifest string `json:"publish_manifest"`
	ManifestURL     string `json:"manifest_url"`
	PublishError    string `json:"publish_error"`
}

// AssetRef maps an asset id to its object-store location. Read-only.
type AssetRef struct {
	ID        string
	Bucket    string
	ObjectKey string
}

// DispatchResult is the uniform outcome contract every platform adapter
// returns, whatever its internal protocol.
type DispatchResult struct {
	Success   bool
	URL       string
	EmbedCode string
	Error     string
}

// StatusUpdate is a partial update of a job's result fields. Nil pointers
// leave the corresponding column untouched.
type StatusUpdate struct {
	Published       *bool
	PublishURL      *string
	PublishManifest *string
	ManifestURL     *string
	PublishError    *string
}

// BatchSummary reports the outcome of one due-job sweep. Processed counts
// every attempted job, Failed the subset that did not end published.
type BatchSummary struct {
	Processed int
	Failed    int
}

// BoolPtr returns a pointer to b, for StatusUpdate fields.
func BoolPtr(b bool) *bool { return &b }

// StringPtr returns a pointer to s, for StatusUpdate fields.
func StringPtr(s string) *string { return &s }
