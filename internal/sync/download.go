package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// downloadContent fetches a descriptor-provided URL (course image or banner)
// and derives a usable filename from the URL path, falling back to the
// response content type when the path gives nothing.
func downloadContent(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("download %s: status=%d", rawURL, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read download body: %w", err)
	}

	return content, deriveFilename(rawURL, resp.Header.Get("Content-Type")), nil
}

func deriveFilename(rawURL, contentType string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "/" || name == "." {
		name = "downloaded_file"
	}

	if !hasImageExtension(name) {
		switch {
		case strings.Contains(contentType, "image/jpeg"):
			name += ".jpg"
		case strings.Contains(contentType, "image/png"):
			name += ".png"
		case strings.Contains(contentType, "image/gif"):
			name += ".gif"
		}
	}
	return name
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
