package media

import "testing"

func TestDetectExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, ".jpg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, ".png"},
		{"gif89", []byte("GIF89a trailer"), ".gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), ".webp"},
		{"pdf", []byte("%PDF-1.7"), ".pdf"},
		{"ogg", []byte("OggS\x00\x02"), ".ogg"},
		{"mp4", []byte("\x00\x00\x00\x18ftypmp42more"), ".mp4"},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), ""},
		{"unknown", []byte("hello world"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectExtension(tt.head); got != tt.want {
				t.Errorf("DetectExtension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtensionForMime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"IMAGE/PNG", ".png"},
		{"audio/ogg; codecs=opus", ".ogg"},
		{"video/mp4", ".mp4"},
		{"application/octet-stream", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			t.Parallel()
			if got := ExtensionForMime(tt.mime); got != tt.want {
				t.Errorf("ExtensionForMime(%q) = %q, want %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestMimeForExtension(t *testing.T) {
	t.Parallel()

	if got := MimeForExtension(".webp"); got != "image/webp" {
		t.Errorf("MimeForExtension(.webp) = %q", got)
	}
	if got := MimeForExtension(".xyz"); got != "application/octet-stream" {
		t.Errorf("MimeForExtension(.xyz) = %q", got)
	}
}
