package media

import (
	"strings"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// RefKind tells the cache how to obtain the bytes behind a reference.
type RefKind string

const (
	// RefNone: nothing located (only possible for text content).
	RefNone RefKind = ""
	// RefInline: Value is base64 data, possibly a data: URL.
	RefInline RefKind = "inline"
	// RefURL: Value is a downloadable URL, possibly an encrypted CDN blob.
	RefURL RefKind = "url"
	// RefByID: Value is the provider message id; bytes must be fetched
	// through the gateway's download-by-message-id call.
	RefByID RefKind = "by_id"
)

// Ref is a located media reference plus the MIME type the payload
// declared for it, if any.
type Ref struct {
	Kind RefKind
	// Value is base64 data, a URL, or a message id depending on Kind.
	Value string
	// Mime is the declared MIME type, "" when the payload had none.
	Mime string
}

// Field-candidate lists, highest priority first. The gateway renamed
// these fields repeatedly; extending a list is the supported way to
// absorb a new payload variant.
var (
	urlFieldsByType = map[wagateway.ContentType][]string{
		wagateway.ContentImage:    {"imageUrl", "url", "mediaUrl"},
		wagateway.ContentAudio:    {"audioUrl", "url", "mediaUrl"},
		wagateway.ContentVideo:    {"videoUrl", "url", "mediaUrl"},
		wagateway.ContentDocument: {"documentUrl", "url", "mediaUrl"},
		wagateway.ContentSticker:  {"stickerUrl", "url", "mediaUrl"},
	}
	genericURLFields    = []string{"mediaUrl", "url", "fileUrl", "downloadUrl", "deprecatedMms3Url"}
	inlineFields        = []string{"base64", "data", "fileBase64"}
	mimeFields          = []string{"mimetype", "mimeType", "mime", "contentType"}
	genericMimeDefaults = map[string]struct{}{
		"":                         {},
		"application/octet-stream": {},
	}
)

// Locate finds the best media reference in a payload for the given
// content type. Search order: the type-specific container (url, then
// inline), then generic top-level fields. Text content never yields a
// reference; any other content type degenerates to fetch-by-id so the
// cache can still try the gateway.
func Locate(p wagateway.Payload, ct wagateway.ContentType, messageID string) Ref {
	if ct == wagateway.ContentText {
		return Ref{}
	}

	containers := containerPayloads(p, ct)
	for _, container := range containers {
		if ref := locateIn(container, urlFieldsByType[ct], declaredMime(container, p)); ref.Kind != RefNone {
			return ref
		}
	}
	if ref := locateIn(p, genericURLFields, declaredMime(p)); ref.Kind != RefNone {
		return ref
	}

	if strings.TrimSpace(messageID) == "" {
		return Ref{}
	}
	return Ref{Kind: RefByID, Value: strings.TrimSpace(messageID), Mime: declaredMime(p)}
}

func locateIn(p wagateway.Payload, urlFields []string, mime string) Ref {
	if p == nil {
		return Ref{}
	}
	if u := p.String(urlFields...); u != "" && looksLikeURL(u) {
		return Ref{Kind: RefURL, Value: u, Mime: mime}
	}
	if data := p.String(inlineFields...); data != "" {
		return Ref{Kind: RefInline, Value: data, Mime: mime}
	}
	return Ref{}
}

func containerPayloads(p wagateway.Payload, ct wagateway.ContentType) []wagateway.Payload {
	var result []wagateway.Payload
	for _, name := range wagateway.ContainerFields(ct) {
		if inner, ok := p.Map(name); ok {
			result = append(result, inner)
		}
	}
	return result
}

// declaredMime returns the first trustworthy declared MIME from the given
// payloads; generic defaults are treated as absent.
func declaredMime(payloads ...wagateway.Payload) string {
	for _, p := range payloads {
		if p == nil {
			continue
		}
		mime := normalizeMime(p.String(mimeFields...))
		if _, generic := genericMimeDefaults[mime]; !generic {
			return mime
		}
	}
	return ""
}

func normalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if semi := strings.IndexByte(mime, ';'); semi >= 0 {
		mime = strings.TrimSpace(mime[:semi])
	}
	return mime
}

func looksLikeURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// IsEncryptedURL reports whether a URL points at the network's encrypted
// CDN: those blobs need the media key and the decrypt path, a plain
// download returns ciphertext.
func IsEncryptedURL(raw string) bool {
	lowered := strings.ToLower(raw)
	if strings.Contains(lowered, ".whatsapp.net/") || strings.Contains(lowered, "mmg.whatsapp.net") {
		return true
	}
	trimmed := lowered
	if q := strings.IndexByte(trimmed, '?'); q >= 0 {
		trimmed = trimmed[:q]
	}
	return strings.HasSuffix(trimmed, ".enc")
}
