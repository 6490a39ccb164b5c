package thumbnail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Setter uploads image bytes as a video's thumbnail. Satisfied by the
// youtube client.
type Setter interface {
	SetThumbnail(ctx context.Context, videoID string, r io.Reader, contentType string) error
}

// Copy downloads the thumbnail at thumbURL and re-uploads it to videoID.
// An empty URL is a no-op. The image is staged through a temp file which is
// removed on every path after it is created; a failed fetch never creates
// one.
func Copy(ctx context.Context, hc *http.Client, setter Setter, videoID, thumbURL string) error {
	if thumbURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("fetch thumbnail: http %d", res.StatusCode)
	}

	tmp, err := os.CreateTemp("", "thumbnail-*.jpg")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, copyErr := io.Copy(tmp, res.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return fmt.Errorf("write temp file: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	ct := res.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	if err := setter.SetThumbnail(ctx, videoID, f, ct); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return nil
}
