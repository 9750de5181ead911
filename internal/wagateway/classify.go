package wagateway

import "strings"

// EventKind is the canonical classification of a webhook event.
type EventKind string

const (
	EventMessageReceived  EventKind = "message_received"
	EventMessageSent      EventKind = "message_sent"
	EventStatusUpdate     EventKind = "status_update"
	EventConnectionUpdate EventKind = "connection_update"
	EventUnknown          EventKind = "unknown"
)

// ContentType is the kind of content a message carries.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentAudio    ContentType = "audio"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentSticker  ContentType = "sticker"
)

// eventNames maps the gateway's explicit event vocabulary to canonical
// kinds. The vocabulary drifted across gateway versions; all observed
// spellings are kept.
var eventNames = map[string]EventKind{
	"message":          EventMessageReceived,
	"messages.upsert":  EventMessageReceived,
	"onmessage":        EventMessageReceived,
	"message.received": EventMessageReceived,
	"received":         EventMessageReceived,
	"message.sent":     EventMessageSent,
	"sent":             EventMessageSent,
	"onack":            EventStatusUpdate,
	"ack":              EventStatusUpdate,
	"message.ack":      EventStatusUpdate,
	"status":           EventStatusUpdate,
	"messages.update":  EventStatusUpdate,
	"connection":       EventConnectionUpdate,
	"connected":        EventConnectionUpdate,
	"disconnected":     EventConnectionUpdate,
	"qrcode":           EventConnectionUpdate,
	"connection.update": EventConnectionUpdate,
}

// contentMarkerKeys signal that the payload carries message content.
var contentMarkerKeys = []string{
	"body", "text", "caption", "content",
	"image", "imageMessage", "audio", "audioMessage",
	"video", "videoMessage", "document", "documentMessage",
	"sticker", "stickerMessage",
}

// ackKeys signal a delivery-state update.
var ackKeys = []string{"ack", "ackType", "status"}

// connectivityKeys signal a connection-state event.
var connectivityKeys = []string{"connected", "state", "battery", "qrcode", "plugged"}

// Classify maps an arbitrary payload to a canonical event kind.
//
// The explicit event-name field wins when present. A "received" event name
// still means outbound traffic when the payload marks the message as
// self-originated: the gateway reports messages typed into the native
// phone client through the same received hook.
func Classify(p Payload) EventKind {
	if name := p.String("event", "type", "eventType"); name != "" {
		if kind, ok := eventNames[strings.ToLower(name)]; ok {
			if kind == EventMessageReceived && p.FromMe() {
				return EventMessageSent
			}
			return kind
		}
	}

	if p.Has(contentMarkerKeys...) && p.MessageID() != "" {
		if p.FromMe() {
			return EventMessageSent
		}
		return EventMessageReceived
	}

	if p.Has(ackKeys...) && p.MessageID() != "" {
		return EventStatusUpdate
	}

	if p.Has(connectivityKeys...) {
		return EventConnectionUpdate
	}

	return EventUnknown
}

// containerFields lists the content-type specific nested containers a
// gateway may wrap media metadata in, highest priority first.
var containerFields = map[ContentType][]string{
	ContentImage:    {"image", "imageMessage"},
	ContentAudio:    {"audio", "audioMessage", "ptt"},
	ContentVideo:    {"video", "videoMessage"},
	ContentDocument: {"document", "documentMessage", "file"},
	ContentSticker:  {"sticker", "stickerMessage"},
}

// ContainerFields returns the candidate container field names for a
// content type, highest priority first.
func ContainerFields(ct ContentType) []string {
	return containerFields[ct]
}

// typeNames maps declared type-field values to content types.
var typeNames = map[string]ContentType{
	"chat":     ContentText,
	"text":     ContentText,
	"image":    ContentImage,
	"picture":  ContentImage,
	"audio":    ContentAudio,
	"ptt":      ContentAudio,
	"voice":    ContentAudio,
	"video":    ContentVideo,
	"document": ContentDocument,
	"file":     ContentDocument,
	"sticker":  ContentSticker,
}

// DetectContentType resolves the message content type: the declared type
// field when recognized, else presence of a type-specific container,
// else text.
func DetectContentType(p Payload) ContentType {
	if declared := p.String("type", "messageType", "mediaType"); declared != "" {
		if ct, ok := typeNames[strings.ToLower(declared)]; ok {
			return ct
		}
	}
	for _, ct := range []ContentType{ContentImage, ContentAudio, ContentVideo, ContentDocument, ContentSticker} {
		for _, container := range containerFields[ct] {
			if _, ok := p.Map(container); ok {
				return ct
			}
		}
	}
	return ContentText
}

// Text returns the textual content or caption of a message payload.
func (p Payload) Text() string {
	ct := DetectContentType(p)
	if ct != ContentText {
		for _, container := range containerFields[ct] {
			if inner, ok := p.Map(container); ok {
				if caption := inner.String("caption", "text"); caption != "" {
					return caption
				}
			}
		}
		return p.String("caption")
	}
	return p.String("body", "text", "content", "message.text", "message.conversation")
}

// Ack returns the delivery-state marker of a status-update payload as a
// normalized lowercase string. Numeric acks follow the gateway's scale:
// -1 error, 1 sent, 2 delivered, 3 read, 4 played.
func (p Payload) Ack() string {
	if n, ok := p.Int("ack", "ackType"); ok {
		switch {
		case n < 0:
			return "failed"
		case n == 1:
			return "sent"
		case n == 2:
			return "delivered"
		case n >= 3:
			return "read"
		}
		return ""
	}
	return strings.ToLower(p.String("ack", "ackType", "status"))
}
