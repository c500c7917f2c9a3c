package booru

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

const defaultBaseURL = "https://danbooru.donmai.us"

// Client searches Danbooru's JSON API for candidate posts.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ ports.Searcher = (*Client)(nil)

// NewClient wires an HTTP client; baseURL defaults to the public instance.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: baseURL, client: client}
}

type danbooruPost struct {
	ID              int64  `json:"id"`
	LargeFileURL    string `json:"large_file_url"`
	FileURL         string `json:"file_url"`
	TagStringArtist string `json:"tag_string_artist"`
	TagStringChar   string `json:"tag_string_character"`
	Source          string `json:"source"`
}

// Search returns posts matching the tag query, in provider order. Posts
// missing an id or a file URL are dropped; some records lack fields.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	endpoint, err := c.buildSearchURL(query, limit)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "artcurator/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("danbooru returned %s", resp.Status)
	}

	var posts []danbooruPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(posts))
	for _, post := range posts {
		if post.ID == 0 || post.FileURL == "" {
			continue
		}
		preview := post.LargeFileURL
		if preview == "" {
			preview = post.FileURL
		}
		hits = append(hits, domain.SearchHit{
			ID:            post.ID,
			PreviewURL:    preview,
			FileURL:       post.FileURL,
			Artist:        post.TagStringArtist,
			CharacterTags: post.TagStringChar,
			PageURL:       fmt.Sprintf("%s/posts/%d", c.baseURL, post.ID),
			SourceURL:     post.Source,
		})
	}
	return hits, nil
}

func (c *Client) buildSearchURL(query string, limit int) (string, error) {
	parsed, err := url.Parse(c.baseURL + "/posts.json")
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", c.baseURL, err)
	}
	values := parsed.Query()
	values.Set("tags", query)
	values.Set("limit", strconv.Itoa(limit))
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
