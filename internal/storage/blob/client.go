// Package blob talks to a Supabase-compatible object storage REST API.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/studentaffairs/portal/internal/config"
)

var ErrNotConfigured = errors.New("blob storage not configured")

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	bucket     string
	serviceKey string
	maxBytes   int64
	httpClient *http.Client
}

func NewClient(cfg config.StorageConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		bucket:     cfg.Bucket,
		serviceKey: cfg.ServiceKey,
		maxBytes:   cfg.MaxUploadBytes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PublicURL builds the public object URL without checking that it exists.
// It returns "" when storage is not configured.
func (c *Client) PublicURL(path string) string {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if c == nil || c.baseURL == "" || c.bucket == "" || path == "" {
		return ""
	}
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}

// Upload stores data at path. Existing objects are not overwritten.
func (c *Client) Upload(ctx context.Context, path, contentType string, data []byte) error {
	if c == nil || c.baseURL == "" || c.serviceKey == "" {
		return ErrNotConfigured
	}
	endpoint := c.baseURL + "/storage/v1/object/" + url.PathEscape(c.bucket) + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload %s: storage returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
