package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zaptalkhq/zaptalk/internal/storage"
	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// DefaultMaxAssetBytes caps a cached object when no limit is configured.
const DefaultMaxAssetBytes = 64 << 20

// GatewayClient is the slice of the gateway API the cache needs: the
// authenticated re-download used when a payload's own reference is
// unusable.
type GatewayClient interface {
	DownloadMediaByMessageID(ctx context.Context, instanceID, token, messageID string) (wagateway.MediaDownload, error)
}

// FetchRequest describes one media asset to cache.
type FetchRequest struct {
	// ConnectionID prefixes the storage key so assets are grouped per
	// connection.
	ConnectionID string
	// InstanceID and Token authenticate gateway fallback downloads.
	InstanceID string
	Token      string

	ContentType wagateway.ContentType
	Ref         Ref
	// MessageID is the provider message id, used for gateway fallback
	// downloads.
	MessageID string
	// MediaKeyB64 is the base64 per-message key, "" when the payload
	// carried none.
	MediaKeyB64 string
}

// Result describes a cached asset.
type Result struct {
	StorageKey string
	AccessPath string
	Mime       string
}

// Cache downloads, decrypts, and persists media assets.
type Cache struct {
	logger     *slog.Logger
	store      storage.Provider
	gateway    GatewayClient
	httpClient *http.Client
	maxBytes   int64
}

// NewCache creates a media cache backed by the given object store.
func NewCache(log *slog.Logger, store storage.Provider, gateway GatewayClient, maxBytes int64) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAssetBytes
	}
	return &Cache{
		logger:  log.With(slog.String("service", "media_cache")),
		store:   store,
		gateway: gateway,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// Fetch obtains the asset described by req and persists it. The same
// request may be fetched twice (eager and background passes); callers
// coordinate to avoid the duplicate, the cache itself is stateless.
func (c *Cache) Fetch(ctx context.Context, req FetchRequest) (Result, error) {
	switch req.Ref.Kind {
	case RefInline:
		data, err := decodeInline(req.Ref.Value)
		if err != nil {
			return Result{}, fmt.Errorf("decode inline media: %w", err)
		}
		return c.persist(ctx, req, data, req.Ref.Mime)

	case RefURL:
		if IsEncryptedURL(req.Ref.Value) {
			return c.fetchEncrypted(ctx, req)
		}
		data, err := c.download(ctx, req.Ref.Value)
		if err != nil {
			return Result{}, err
		}
		return c.persist(ctx, req, data, req.Ref.Mime)

	case RefByID:
		return c.fetchViaGateway(ctx, req, req.Ref.Value)

	default:
		return Result{}, ErrNoMedia
	}
}

// fetchEncrypted handles encrypted CDN URLs: with a media key the blob
// is downloaded and decrypted locally; without one the gateway is asked
// to re-deliver the plaintext.
func (c *Cache) fetchEncrypted(ctx context.Context, req FetchRequest) (Result, error) {
	if req.MediaKeyB64 == "" {
		c.logger.Debug("encrypted url without media key, falling back to gateway",
			slog.String("instance_id", req.InstanceID))
		return c.fetchViaGateway(ctx, req, req.MessageID)
	}

	mediaKey, err := decodeBase64(req.MediaKeyB64)
	if err != nil {
		return Result{}, fmt.Errorf("decode media key: %w", err)
	}
	blob, err := c.download(ctx, req.Ref.Value)
	if err != nil {
		return Result{}, err
	}
	plaintext, err := Decrypt(blob, mediaKey, req.ContentType)
	if err != nil {
		return Result{}, fmt.Errorf("decrypt media: %w", err)
	}
	return c.persist(ctx, req, plaintext, req.Ref.Mime)
}

func (c *Cache) fetchViaGateway(ctx context.Context, req FetchRequest, messageID string) (Result, error) {
	if c.gateway == nil {
		return Result{}, fmt.Errorf("no gateway client configured")
	}
	dl, err := c.gateway.DownloadMediaByMessageID(ctx, req.InstanceID, req.Token, messageID)
	if err != nil {
		return Result{}, fmt.Errorf("gateway download: %w", err)
	}
	mime := firstDeclared(dl.Mime, req.Ref.Mime)

	if dl.Base64 != "" {
		data, err := decodeInline(dl.Base64)
		if err != nil {
			return Result{}, fmt.Errorf("decode gateway media: %w", err)
		}
		return c.persist(ctx, req, data, mime)
	}
	// The gateway handed back a URL instead; it may itself be encrypted.
	if IsEncryptedURL(dl.URL) && req.MediaKeyB64 != "" {
		sub := req
		sub.Ref = Ref{Kind: RefURL, Value: dl.URL, Mime: mime}
		return c.fetchEncrypted(ctx, sub)
	}
	data, err := c.download(ctx, dl.URL)
	if err != nil {
		return Result{}, err
	}
	return c.persist(ctx, req, data, mime)
}

func (c *Cache) download(ctx context.Context, rawURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download media status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, ErrAssetTooLarge
	}
	return data, nil
}

// persist stores the bytes and resolves the final MIME. Preference
// order: the declared MIME when specific, then the sniffed type, then a
// per-content-type default.
func (c *Cache) persist(ctx context.Context, req FetchRequest, data []byte, declared string) (Result, error) {
	if int64(len(data)) > c.maxBytes {
		return Result{}, ErrAssetTooLarge
	}

	sniffedExt := DetectExtension(data)
	ext := ExtensionForMime(declared)
	mime := normalizeMime(declared)
	if ext == "" && sniffedExt != "" {
		ext = sniffedExt
		mime = MimeForExtension(sniffedExt)
	}
	if mime == "" || mime == "application/octet-stream" {
		if sniffedExt != "" {
			mime = MimeForExtension(sniffedExt)
		} else {
			mime = defaultMime(req.ContentType)
		}
	}
	if ext == "" {
		ext = defaultExtension(req.ContentType)
	}

	key := fmt.Sprintf("%s/%s%s", req.ConnectionID, uuid.NewString(), ext)
	if err := c.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return Result{}, fmt.Errorf("store media: %w", err)
	}
	return Result{
		StorageKey: key,
		AccessPath: c.store.AccessPath(key),
		Mime:       mime,
	}, nil
}

func defaultMime(ct wagateway.ContentType) string {
	switch ct {
	case wagateway.ContentImage:
		return "image/jpeg"
	case wagateway.ContentAudio:
		return "audio/ogg"
	case wagateway.ContentVideo:
		return "video/mp4"
	case wagateway.ContentSticker:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func defaultExtension(ct wagateway.ContentType) string {
	switch ct {
	case wagateway.ContentImage:
		return ".jpg"
	case wagateway.ContentAudio:
		return ".ogg"
	case wagateway.ContentVideo:
		return ".mp4"
	case wagateway.ContentSticker:
		return ".webp"
	default:
		return ".bin"
	}
}

func firstDeclared(values ...string) string {
	for _, v := range values {
		if normalizeMime(v) != "" {
			return v
		}
	}
	return ""
}

// decodeInline decodes inline media data: bare base64, optionally
// wrapped in a data: URL.
func decodeInline(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "data:") {
		if comma := strings.IndexByte(value, ','); comma >= 0 {
			value = value[comma+1:]
		}
	}
	return decodeBase64(value)
}

func decodeBase64(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if data, err := base64.StdEncoding.DecodeString(value); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(value, "="))
}
