package chunk

import "errors"

var (
	// ErrUnsupportedChunkVersion is returned when a chunk's version byte is
	// anything other than Version.
	ErrUnsupportedChunkVersion = errors.New("chunk: unsupported version")
	// ErrUnknownHashAlgorithm is returned when the trailer names a hash
	// algorithm this decoder doesn't implement.
	ErrUnknownHashAlgorithm = errors.New("chunk: unknown hash algorithm")
	// ErrHashMismatch is returned when the decoded payload's hash doesn't
	// match the hash recorded in the trailer.
	ErrHashMismatch = errors.New("chunk: hash mismatch")
	// ErrDecompressionSizeMismatch is returned when the decompressed
	// payload's length doesn't equal the declared OriginalSize.
	ErrDecompressionSizeMismatch = errors.New("chunk: decompression size mismatch")
	// ErrTruncated is returned when fewer bytes remain than a field needs.
	ErrTruncated = errors.New("chunk: truncated")
	// ErrDecryptionFailed is returned when AES-GCM authentication fails.
	ErrDecryptionFailed = errors.New("chunk: decryption failed")
	// ErrInvalidKeySize is returned when an encryption key isn't exactly
	// KeySize bytes.
	ErrInvalidKeySize = errors.New("chunk: encryption key must be 32 bytes")
)
