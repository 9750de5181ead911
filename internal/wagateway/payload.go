// Package wagateway models the upstream WhatsApp gateway's webhook
// payloads and API. Payloads are schemaless: field names vary by gateway
// version and by content type, so access goes through ordered candidate
// lists instead of fixed structs.
package wagateway

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payload is a decoded webhook body of arbitrary shape.
type Payload map[string]any

// ParsePayload decodes raw JSON into a Payload.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// String returns the first non-empty string found under the given keys.
// A key may be a dotted path ("key.remoteJid") descending into nested
// objects.
func (p Payload) String(keys ...string) string {
	for _, key := range keys {
		if value, ok := p.lookup(key); ok {
			if s := stringValue(value); s != "" {
				return s
			}
		}
	}
	return ""
}

// Bool returns the first boolean found under the given keys. String forms
// ("true", "1") count; anything else is false.
func (p Payload) Bool(keys ...string) bool {
	for _, key := range keys {
		value, ok := p.lookup(key)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes":
				return true
			}
		}
	}
	return false
}

// Int returns the first integer found under the given keys, accepting
// JSON numbers and numeric strings.
func (p Payload) Int(keys ...string) (int64, bool) {
	for _, key := range keys {
		value, ok := p.lookup(key)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int64(v), true
		case int:
			return int64(v), true
		case int64:
			return v, true
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Map returns the nested object under the given key, if present.
func (p Payload) Map(key string) (Payload, bool) {
	value, ok := p.lookup(key)
	if !ok {
		return nil, false
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	return Payload(m), true
}

// Has reports whether any of the given keys is present, regardless of value.
func (p Payload) Has(keys ...string) bool {
	for _, key := range keys {
		if _, ok := p.lookup(key); ok {
			return true
		}
	}
	return false
}

func (p Payload) lookup(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	if !strings.Contains(key, ".") {
		value, ok := p[key]
		return value, ok
	}
	parts := strings.Split(key, ".")
	current := map[string]any(p)
	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// MessageID returns the provider-assigned message identifier.
func (p Payload) MessageID() string {
	return p.String("messageId", "id", "key.id", "message.id")
}

// ChatID returns the remote conversation identifier the event refers to.
func (p Payload) ChatID() string {
	return p.String("chatId", "from", "remoteJid", "key.remoteJid", "chat.id", "phone")
}

// SenderName returns the display name the gateway attached, if any.
func (p Payload) SenderName() string {
	return p.String("senderName", "chatName", "pushName", "notifyName", "sender.name")
}

// FromMe reports whether the gateway marked the message as sent by the
// linked account itself (native client traffic included).
func (p Payload) FromMe() bool {
	return p.Bool("fromMe", "from_me", "self", "key.fromMe")
}

// Timestamp returns the event time. Gateways send epoch seconds or
// milliseconds; values past year 9999 in seconds are treated as millis.
// Falls back to now when absent.
func (p Payload) Timestamp() time.Time {
	raw, ok := p.Int("timestamp", "t", "messageTimestamp", "moment")
	if !ok || raw <= 0 {
		return time.Now().UTC()
	}
	if raw > 1e12 {
		return time.UnixMilli(raw).UTC()
	}
	return time.Unix(raw, 0).UTC()
}

// MediaKeyB64 returns the base64 media key delivered out-of-band with
// encrypted attachments, searching the content container first.
func (p Payload) MediaKeyB64(ct ContentType) string {
	for _, container := range containerFields[ct] {
		if inner, ok := p.Map(container); ok {
			if key := inner.String("mediaKey", "media_key"); key != "" {
				return key
			}
		}
	}
	return p.String("mediaKey", "media_key")
}
