package media

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

func TestDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	contentTypes := []wagateway.ContentType{
		wagateway.ContentImage,
		wagateway.ContentAudio,
		wagateway.ContentVideo,
		wagateway.ContentDocument,
		wagateway.ContentSticker,
	}

	plaintext := []byte("not really a jpeg but good enough for a round trip")
	for _, ct := range contentTypes {
		t.Run(string(ct), func(t *testing.T) {
			t.Parallel()
			key, err := NewMediaKey()
			if err != nil {
				t.Fatalf("NewMediaKey: %v", err)
			}
			blob, err := Encrypt(plaintext, key, ct)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			got, err := Decrypt(blob, key, ct)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("round trip mismatch: got %q", got)
			}
		})
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	t.Parallel()

	key, err := NewMediaKey()
	if err != nil {
		t.Fatalf("NewMediaKey: %v", err)
	}
	blob, err := Encrypt([]byte("payload bytes"), key, wagateway.ContentImage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	t.Run("flipped ciphertext bit", func(t *testing.T) {
		t.Parallel()
		tampered := append([]byte(nil), blob...)
		tampered[0] ^= 0x01
		if _, err := Decrypt(tampered, key, wagateway.ContentImage); !errors.Is(err, ErrMACMismatch) {
			t.Errorf("Decrypt = %v, want ErrMACMismatch", err)
		}
	})

	t.Run("flipped mac bit", func(t *testing.T) {
		t.Parallel()
		tampered := append([]byte(nil), blob...)
		tampered[len(tampered)-1] ^= 0x01
		if _, err := Decrypt(tampered, key, wagateway.ContentImage); !errors.Is(err, ErrMACMismatch) {
			t.Errorf("Decrypt = %v, want ErrMACMismatch", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, _ := NewMediaKey()
		if _, err := Decrypt(blob, other, wagateway.ContentImage); !errors.Is(err, ErrMACMismatch) {
			t.Errorf("Decrypt = %v, want ErrMACMismatch", err)
		}
	})

	t.Run("wrong content type derives wrong keys", func(t *testing.T) {
		t.Parallel()
		if _, err := Decrypt(blob, key, wagateway.ContentVideo); !errors.Is(err, ErrMACMismatch) {
			t.Errorf("Decrypt = %v, want ErrMACMismatch", err)
		}
	})
}

func TestDecryptShortBlob(t *testing.T) {
	t.Parallel()

	key, _ := NewMediaKey()
	if _, err := Decrypt([]byte{1, 2, 3}, key, wagateway.ContentImage); !errors.Is(err, ErrShortCiphertext) {
		t.Errorf("Decrypt = %v, want ErrShortCiphertext", err)
	}
}

func TestStickerSharesImageKeys(t *testing.T) {
	t.Parallel()

	key, _ := NewMediaKey()
	blob, err := Encrypt([]byte("webp bytes"), key, wagateway.ContentSticker)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	// Stickers use the image HKDF label, so decrypting as image works.
	if _, err := Decrypt(blob, key, wagateway.ContentImage); err != nil {
		t.Errorf("Decrypt as image: %v", err)
	}
}

func TestDecryptUnknownContentType(t *testing.T) {
	t.Parallel()

	key, _ := NewMediaKey()
	if _, err := Decrypt(make([]byte, 32), key, wagateway.ContentText); err == nil {
		t.Error("expected error for content type without media keys")
	}
}

func TestUnpadRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not block aligned", make([]byte, 15)},
		{"zero padding byte", append(make([]byte, 15), 0)},
		{"padding longer than block", append(make([]byte, 15), 17)},
		{"inconsistent padding", append([]byte{3, 3}, append(make([]byte, 12), 1, 3)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := unpad(tt.data); !errors.Is(err, ErrInvalidPadding) {
				t.Errorf("unpad = %v, want ErrInvalidPadding", err)
			}
		})
	}
}
