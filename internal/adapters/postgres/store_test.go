package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vidpublisher/internal/core/domain"
)

func TestBuildUpdate_AllFields(t *testing.T) {
	set, args := buildUpdate(domain.StatusUpdate{
		Published:       domain.BoolPtr(true),
		PublishURL:      domain.StringPtr("https://x"),
		PublishManifest: domain.StringPtr("# m"),
		ManifestURL:     domain.StringPtr("https://bucket/m.md"),
		PublishError:    domain.StringPtr(""),
	})

	assert.Equal(t, []string{
		"published = $1",
		"publish_url = $2",
		"publish_manifest = $3",
		"manifest_url = $4",
		"publish_error = $5",
	}, set)
	assert.Equal(t, []interface{}{true, "https://x", "# m", "https://bucket/m.md", ""}, args)
}

func TestBuildUpdate_PartialUpdateOmitsNilFields(t *testing.T) {
	set, args := buildUpdate(domain.StatusUpdate{
		Published:    domain.BoolPtr(false),
		PublishError: domain.StringPtr("upload rejected"),
	})

	assert.Equal(t, []string{"published = $1", "publish_error = $2"}, set)
	assert.Equal(t, []interface{}{false, "upload rejected"}, args)
}

func TestBuildUpdate_Empty(t *testing.T) {
	set, args := buildUpdate(domain.StatusUpdate{})
	assert.Empty(t, set)
	assert.Empty(t, args)
}
