package media

import "bytes"

// sniffLen is how much of a byte sequence DetectExtension inspects.
const sniffLen = 64

// DetectExtension guesses a file extension from magic bytes. Returns ""
// when no signature matches. Used when the declared MIME is absent or
// untrustworthy: the gateway reports encrypted blobs as
// application/octet-stream regardless of the decrypted content.
func DetectExtension(head []byte) string {
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	switch {
	case bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}):
		return ".jpg"
	case bytes.HasPrefix(head, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return ".png"
	case bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a")):
		return ".gif"
	case len(head) >= 12 && bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return ".webp"
	case bytes.HasPrefix(head, []byte("%PDF")):
		return ".pdf"
	case bytes.HasPrefix(head, []byte("OggS")):
		return ".ogg"
	case len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")):
		// MP4/QuickTime family; covers m4a and mov brands too.
		return ".mp4"
	default:
		return ""
	}
}

// ExtensionForMime maps a declared MIME type to an extension, "" when
// unknown or too generic to trust.
func ExtensionForMime(mime string) string {
	switch normalizeMime(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}

// MimeForExtension is the inverse mapping for sniffed extensions.
func MimeForExtension(ext string) string {
	switch ext {
	case ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".ogg":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
