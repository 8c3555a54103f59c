package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"time"

	"vidpublisher/internal/core/domain"
)

const (
	youtubeTokenURL  = "https://oauth2.googleapis.com/token"
	youtubeUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=multipart&part=snippet,status"
)

// YouTubeAdapter publishes videos through the YouTube Data API, using a
// refresh token for headless authentication.
type YouTubeAdapter struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	uploadURL    string
	client       *http.Client
}

// NewYouTubeAdapter reads YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and
// YOUTUBE_REFRESH_TOKEN from the environment.
func NewYouTubeAdapter() (*YouTubeAdapter, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN must be set")
	}
	return &YouTubeAdapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     youtubeTokenURL,
		uploadURL:    youtubeUploadURL,
		client: &http.Client{
			Timeout: 30 * time.Minute, // videos can be large
		},
	}, nil
}

// Upload publishes the video as a private upload with publishAt set to the
// job's scheduled time.
func (a *YouTubeAdapter) Upload(ctx context.Context, job domain.Job, localPath string) domain.DispatchResult {
	token, err := a.accessToken(ctx)
	if err != nil {
		return domain.DispatchResult{Error: fmt.Sprintf("youtube auth failed: %v", err)}
	}

	videoID, err := a.insertVideo(ctx, token, job, localPath)
	if err != nil {
		return domain.DispatchResult{Error: fmt.Sprintf("youtube upload failed: %v", err)}
	}

	return domain.DispatchResult{
		Success: true,
		URL:     "https://www.youtube.com/watch?v=" + videoID,
	}
}

func (a *YouTubeAdapter) accessToken(ctx context.Context) (string, error) {
	result, err := postForm(ctx, a.client, a.tokenURL, url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"refresh_token": {a.refreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return "", err
	}
	token, ok := result["access_token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%s", apiError(result, "no access token in response"))
	}
	return token, nil
}

func (a *YouTubeAdapter) insertVideo(ctx context.Context, token string, job domain.Job, localPath string) (string, error) {
	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}
	meta := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":       job.Title,
			"description": job.Description,
			"tags":        tags,
			"categoryId":  "22",
		},
		"status": map[string]interface{}{
			"privacyStatus":           "private",
			"selfDeclaredMadeForKids": false,
			"publishAt":               job.ScheduledAt.UTC().Format(time.RFC3339),
		},
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			metaHeader := textproto.MIMEHeader{}
			metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
			part, err := mw.CreatePart(metaHeader)
			if err != nil {
				return err
			}
			if _, err := part.Write(metaJSON); err != nil {
				return err
			}

			mediaHeader := textproto.MIMEHeader{}
			mediaHeader.Set("Content-Type", "video/*")
			part, err = mw.CreatePart(mediaHeader)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uploadURL, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	result, err := doJSON(a.client, req)
	if err != nil {
		return "", err
	}
	videoID, ok := result["id"].(string)
	if !ok || videoID == "" {
		return "", fmt.Errorf("%s", apiError(result, "no video id in response"))
	}
	return videoID, nil
}
