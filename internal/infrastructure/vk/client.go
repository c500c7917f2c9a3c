package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

const defaultAPIBase = "https://api.vk.com/method"

// APIError is an error payload returned by the VK API.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// Client talks to the VK API with a single access token. Wall publishing
// needs a user token while chat photo uploads need the group token, so the
// application holds two clients over the same group.
type Client struct {
	token   string
	groupID int64 // positive; wall methods negate it
	version string
	apiBase string
	client  *http.Client
}

var (
	_ ports.Wall            = (*Client)(nil)
	_ ports.MessageUploader = (*Client)(nil)
	_ ports.WallUploader    = (*Client)(nil)
)

// NewClient registers the access token and target group.
func NewClient(token string, groupID int64, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		token:   token,
		groupID: groupID,
		version: "5.199",
		apiBase: defaultAPIBase,
		client:  client,
	}
}

// RecentPosts returns up to count wall posts, newest first.
func (c *Client) RecentPosts(ctx context.Context, count int) ([]domain.WallPost, error) {
	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-c.groupID, 10))
	params.Set("count", strconv.Itoa(count))

	var response struct {
		Items []struct {
			Text string `json:"text"`
			Date int64  `json:"date"`
		} `json:"items"`
	}
	if err := c.call(ctx, "wall.get", params, &response); err != nil {
		return nil, err
	}

	posts := make([]domain.WallPost, len(response.Items))
	for i, item := range response.Items {
		posts[i] = domain.WallPost{Text: item.Text, Timestamp: item.Date}
	}
	return posts, nil
}

// CreatePost publishes a wall post; publishAt == 0 publishes immediately,
// any other value defers the post to that unix timestamp.
func (c *Client) CreatePost(ctx context.Context, text, attachment string, publishAt int64) error {
	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-c.groupID, 10))
	params.Set("from_group", "1")
	params.Set("message", text)
	if attachment != "" {
		params.Set("attachments", attachment)
	}
	if publishAt > 0 {
		params.Set("publish_date", strconv.FormatInt(publishAt, 10))
	}

	return c.call(ctx, "wall.post", params, nil)
}

// UploadMessagePhoto uploads image bytes for use as a chat attachment and
// returns the "photo{owner}_{id}" handle.
func (c *Client) UploadMessagePhoto(ctx context.Context, data []byte, peerID int64) (string, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))

	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "photos.getMessagesUploadServer", params, &server); err != nil {
		return "", err
	}

	uploaded, err := c.uploadFile(ctx, server.UploadURL, data)
	if err != nil {
		return "", err
	}

	save := url.Values{}
	save.Set("photo", uploaded.Photo)
	save.Set("server", strconv.Itoa(uploaded.Server))
	save.Set("hash", uploaded.Hash)

	var saved []photoRef
	if err := c.call(ctx, "photos.saveMessagesPhoto", save, &saved); err != nil {
		return "", err
	}
	return photoHandle(saved)
}

// UploadWallPhoto uploads image bytes for use as a wall attachment.
func (c *Client) UploadWallPhoto(ctx context.Context, data []byte) (string, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))

	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "photos.getWallUploadServer", params, &server); err != nil {
		return "", err
	}

	uploaded, err := c.uploadFile(ctx, server.UploadURL, data)
	if err != nil {
		return "", err
	}

	save := url.Values{}
	save.Set("group_id", strconv.FormatInt(c.groupID, 10))
	save.Set("photo", uploaded.Photo)
	save.Set("server", strconv.Itoa(uploaded.Server))
	save.Set("hash", uploaded.Hash)

	var saved []photoRef
	if err := c.call(ctx, "photos.saveWallPhoto", save, &saved); err != nil {
		return "", err
	}
	return photoHandle(saved)
}

type photoRef struct {
	OwnerID int64 `json:"owner_id"`
	ID      int64 `json:"id"`
}

func photoHandle(saved []photoRef) (string, error) {
	if len(saved) == 0 {
		return "", fmt.Errorf("vk returned no saved photo")
	}
	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

type uploadResult struct {
	Photo  string `json:"photo"`
	Server int    `json:"server"`
	Hash   string `json:"hash"`
}

func (c *Client) uploadFile(ctx context.Context, uploadURL string, data []byte) (uploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", "image.jpg")
	if err != nil {
		return uploadResult{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return uploadResult{}, fmt.Errorf("write form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return uploadResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return uploadResult{}, fmt.Errorf("new upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return uploadResult{}, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uploadResult{}, fmt.Errorf("upload server returned %s", resp.Status)
	}

	var result uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return uploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.Photo == "" || result.Photo == "[]" {
		return uploadResult{}, fmt.Errorf("upload server rejected the photo")
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	if c.token == "" {
		return fmt.Errorf("vk client misconfigured: empty token")
	}

	params.Set("access_token", c.token)
	params.Set("v", c.version)

	endpoint := c.apiBase + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		bytes.NewBufferString(params.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", method, resp.Status)
	}

	var envelope struct {
		Error    *APIError       `json:"error"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", method, err)
	}
	return nil
}
