package wagateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MediaDownload is the gateway's answer to a download-by-message-id call:
// either inline base64 data or a fresh (possibly short-lived) URL.
type MediaDownload struct {
	Base64 string
	URL    string
	Mime   string
}

// Client talks to the upstream gateway's instance API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a gateway API client.
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("service", "wagateway")),
	}
}

type downloadMediaResponse struct {
	Base64   string `json:"base64"`
	Data     string `json:"data"`
	URL      string `json:"url"`
	MediaURL string `json:"mediaUrl"`
	Mime     string `json:"mimetype"`
	MimeAlt  string `json:"mimeType"`
	Error    string `json:"error"`
}

// DownloadMediaByMessageID asks the gateway to re-deliver a message's
// media. Used when the webhook payload carried an encrypted CDN URL
// without a usable key, or no media reference at all.
func (c *Client) DownloadMediaByMessageID(ctx context.Context, instanceID, token, messageID string) (MediaDownload, error) {
	if strings.TrimSpace(instanceID) == "" || strings.TrimSpace(messageID) == "" {
		return MediaDownload{}, fmt.Errorf("instance id and message id are required")
	}
	endpoint := fmt.Sprintf("%s/instances/%s/messages/%s/download-media",
		c.baseURL, url.PathEscape(instanceID), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MediaDownload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MediaDownload{}, fmt.Errorf("download media: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return MediaDownload{}, fmt.Errorf("download media status: %d", resp.StatusCode)
	}

	var body downloadMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return MediaDownload{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != "" {
		return MediaDownload{}, fmt.Errorf("gateway error: %s", body.Error)
	}

	result := MediaDownload{
		Base64: firstNonEmpty(body.Base64, body.Data),
		URL:    firstNonEmpty(body.URL, body.MediaURL),
		Mime:   firstNonEmpty(body.Mime, body.MimeAlt),
	}
	if result.Base64 == "" && result.URL == "" {
		return MediaDownload{}, fmt.Errorf("gateway returned no media")
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
