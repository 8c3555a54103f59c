package platforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"vidpublisher/internal/core/domain"
)

func TestRegistry_UnknownPlatform(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(domain.PlatformWebsite, &WebsiteAdapter{baseURL: "https://site"})

	job := domain.Job{ID: "J1", AssetID: "A1", Platform: "carrier_pigeon"}
	result := registry.Dispatch(context.Background(), job, "/tmp/video.mp4")

	assert.False(t, result.Success)
	assert.Equal(t, "unsupported platform: carrier_pigeon", result.Error)
}

func TestRegistry_RoutesToAdapter(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(domain.PlatformWebsite, &WebsiteAdapter{baseURL: "https://site"})

	job := domain.Job{ID: "J1", AssetID: "A1", Platform: domain.PlatformWebsite}
	result := registry.Dispatch(context.Background(), job, "/tmp/video.mp4")

	assert.True(t, result.Success)
	assert.Equal(t, "https://site/videos/A1", result.URL)
}

func TestWebsiteAdapter_Upload(t *testing.T) {
	adapter := &WebsiteAdapter{baseURL: "https://site"}

	result := adapter.Upload(context.Background(), domain.Job{ID: "J1", AssetID: "A1"}, "/tmp/v.mp4")
	assert.True(t, result.Success)
	assert.Equal(t, "https://site/videos/A1", result.URL)
	assert.Equal(t, `<iframe src="https://site/embed/A1"></iframe>`, result.EmbedCode)
}

func TestWebsiteAdapter_MissingAsset(t *testing.T) {
	adapter := &WebsiteAdapter{baseURL: "https://site"}

	result := adapter.Upload(context.Background(), domain.Job{ID: "J1"}, "/tmp/v.mp4")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no asset reference")
}
