package media

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// The upstream network encrypts CDN media with per-message keys. The
// short media key delivered in the event payload is expanded with
// HKDF-SHA256 (zero salt, type-specific info label) into 112 bytes:
// 16-byte IV, 32-byte AES-256-CBC key, 32-byte HMAC-SHA256 key, and a
// 32-byte ref key this subsystem does not use. The blob carries a
// trailing 10-byte MAC: the first 10 bytes of HMAC-SHA256(IV || body).
const (
	mediaKeyExpandLen = 112
	macLen            = 10

	ivLen        = 16
	cipherKeyLen = 32
	macKeyLen    = 32
)

// mediaTypeInfo is the HKDF domain-separation label per content type.
// Stickers share the image label.
var mediaTypeInfo = map[wagateway.ContentType]string{
	wagateway.ContentImage:    "WhatsApp Image Keys",
	wagateway.ContentVideo:    "WhatsApp Video Keys",
	wagateway.ContentAudio:    "WhatsApp Audio Keys",
	wagateway.ContentDocument: "WhatsApp Document Keys",
	wagateway.ContentSticker:  "WhatsApp Image Keys",
}

type mediaKeys struct {
	iv        []byte
	cipherKey []byte
	macKey    []byte
}

func deriveMediaKeys(mediaKey []byte, ct wagateway.ContentType) (mediaKeys, error) {
	info, ok := mediaTypeInfo[ct]
	if !ok {
		return mediaKeys{}, fmt.Errorf("content type has no media keys: %s", ct)
	}
	expanded := make([]byte, mediaKeyExpandLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, mediaKey, nil, []byte(info)), expanded); err != nil {
		return mediaKeys{}, fmt.Errorf("expand media key: %w", err)
	}
	return mediaKeys{
		iv:        expanded[:ivLen],
		cipherKey: expanded[ivLen : ivLen+cipherKeyLen],
		macKey:    expanded[ivLen+cipherKeyLen : ivLen+cipherKeyLen+macKeyLen],
		// expanded[80:112] is the ref key, unused here.
	}, nil
}

// Decrypt verifies and decrypts an encrypted CDN blob.
func Decrypt(blob, mediaKey []byte, ct wagateway.ContentType) ([]byte, error) {
	keys, err := deriveMediaKeys(mediaKey, ct)
	if err != nil {
		return nil, err
	}
	if len(blob) <= macLen {
		return nil, ErrShortCiphertext
	}
	ciphertext := blob[:len(blob)-macLen]
	mac := blob[len(blob)-macLen:]

	h := hmac.New(sha256.New, keys.macKey)
	h.Write(keys.iv)
	h.Write(ciphertext)
	if !hmac.Equal(mac, h.Sum(nil)[:macLen]) {
		return nil, ErrMACMismatch
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext not block aligned: %d bytes", len(ciphertext))
	}
	block, err := aes.NewCipher(keys.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, keys.iv).CryptBlocks(plaintext, ciphertext)

	return unpad(plaintext)
}

// Encrypt produces a blob in the same format Decrypt consumes. The send
// path uploads these; tests use it for round trips.
func Encrypt(plaintext, mediaKey []byte, ct wagateway.ContentType) ([]byte, error) {
	keys, err := deriveMediaKeys(mediaKey, ct)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keys.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, keys.iv).CryptBlocks(ciphertext, padded)

	h := hmac.New(sha256.New, keys.macKey)
	h.Write(keys.iv)
	h.Write(ciphertext)
	return append(ciphertext, h.Sum(nil)[:macLen]...), nil
}

// NewMediaKey generates a fresh 32-byte media key.
func NewMediaKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate media key: %w", err)
	}
	return key, nil
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
