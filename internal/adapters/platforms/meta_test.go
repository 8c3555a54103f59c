package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidpublisher/internal/core/domain"
)

func writeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func jsonResponse(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestInstagramAdapter_TwoPhaseSuccess(t *testing.T) {
	var uploadCalls, publishCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-user/media":
			uploadCalls++
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "VIDEO", r.FormValue("media_type"))
			assert.Equal(t, "Title\n\nDescription", r.FormValue("caption"))
			assert.Equal(t, "token", r.FormValue("access_token"))
			_, _, err := r.FormFile("video")
			require.NoError(t, err)
			jsonResponse(t, w, map[string]string{"id": "container-1"})
		case "/ig-user/media_publish":
			publishCalls++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "container-1", r.FormValue("creation_id"))
			jsonResponse(t, w, map[string]string{"id": "media-9"})
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	adapter := &InstagramAdapter{
		accessToken:  "token",
		igUserID:     "ig-user",
		graphBaseURL: srv.URL,
		videoBaseURL: srv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
	job := domain.Job{ID: "J1", Title: "Title", Description: "Description"}

	result := adapter.Upload(context.Background(), job, writeTestVideo(t))
	assert.True(t, result.Success)
	assert.Equal(t, "https://www.instagram.com/reel/media-9", result.URL)
	assert.Equal(t, 1, uploadCalls)
	assert.Equal(t, 1, publishCalls)
}

func TestInstagramAdapter_UploadPhaseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(t, w, map[string]interface{}{
			"error": map[string]interface{}{"message": "video too long"},
		})
	}))
	defer srv.Close()

	adapter := &InstagramAdapter{
		accessToken:  "token",
		igUserID:     "ig-user",
		graphBaseURL: srv.URL,
		videoBaseURL: srv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}

	result := adapter.Upload(context.Background(), domain.Job{ID: "J1"}, writeTestVideo(t))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "upload phase failed")
	assert.Contains(t, result.Error, "video too long")
}

func TestInstagramAdapter_PublishPhaseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-user/media":
			jsonResponse(t, w, map[string]string{"id": "container-1"})
		case "/ig-user/media_publish":
			jsonResponse(t, w, map[string]interface{}{
				"error": map[string]interface{}{"message": "container expired"},
			})
		}
	}))
	defer srv.Close()

	adapter := &InstagramAdapter{
		accessToken:  "token",
		igUserID:     "ig-user",
		graphBaseURL: srv.URL,
		videoBaseURL: srv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}

	result := adapter.Upload(context.Background(), domain.Job{ID: "J1"}, writeTestVideo(t))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "publish phase failed")
	assert.Contains(t, result.Error, "container expired")
}

func TestFacebookAdapter_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page-1/videos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Title", r.FormValue("title"))
		jsonResponse(t, w, map[string]string{"id": "v-42"})
	}))
	defer srv.Close()

	adapter := &FacebookAdapter{
		accessToken:  "token",
		pageID:       "page-1",
		videoBaseURL: srv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
	job := domain.Job{ID: "J1", Title: "Title"}

	result := adapter.Upload(context.Background(), job, writeTestVideo(t))
	assert.True(t, result.Success)
	assert.Equal(t, "https://www.facebook.com/page-1/videos/v-42", result.URL)
}

func TestFacebookAdapter_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	adapter := &FacebookAdapter{
		accessToken:  "token",
		pageID:       "page-1",
		videoBaseURL: srv.URL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}

	result := adapter.Upload(context.Background(), domain.Job{ID: "J1"}, writeTestVideo(t))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "facebook upload failed")
}
