package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"artcurator/internal/ports"
)

const maxImageBytes = 50 << 20

// Fetcher downloads image bytes from candidate URLs. Some source links point
// at an HTML page rather than the image itself; in that case the page's
// og:image URL is followed once.
type Fetcher struct {
	client *http.Client
}

var _ ports.ImageFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client with a download-sized timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch returns the raw bytes behind url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.fetch(ctx, url, true)
}

func (f *Fetcher) fetch(ctx context.Context, url string, followHTML bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "artcurator/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned %s", resp.Status)
	}

	if followHTML && strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		imageURL, err := extractOGImage(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("resolve image from page %s: %w", url, err)
		}
		return f.fetch(ctx, imageURL, false)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func extractOGImage(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	content, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !exists || content == "" {
		return "", fmt.Errorf("page has no og:image")
	}
	return content, nil
}
