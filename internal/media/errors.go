package media

import "errors"

var (
	// ErrMACMismatch means the ciphertext failed MAC verification.
	// Decryption is never attempted after it.
	ErrMACMismatch = errors.New("media mac verification failed")
	// ErrShortCiphertext means the blob is too small to carry a MAC.
	ErrShortCiphertext = errors.New("ciphertext shorter than mac")
	// ErrInvalidPadding means CBC padding removal failed after decryption.
	ErrInvalidPadding = errors.New("invalid media padding")
	// ErrAssetTooLarge means a download exceeded the configured cap.
	ErrAssetTooLarge = errors.New("media asset too large")
	// ErrNoMedia means the payload carried no resolvable media reference.
	ErrNoMedia = errors.New("no media reference")
)
