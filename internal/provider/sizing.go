package provider

import "chatfs/internal/chunk"

// headerMargin covers the chunk codec's fixed header, the GCM nonce and
// tag, and the MD5 trailer, per spec §4.C.
const headerMargin = 256

// DefaultMaxAttachmentSize is the transport limit assumed absent an
// explicit configuration value.
const DefaultMaxAttachmentSize = 8 * 1024 * 1024

// ChunkDataSize returns the largest plaintext chunk payload that is
// guaranteed to encode to no more than maxAttachmentSize bytes, even in
// the worst case for LZ4 expansion.
func ChunkDataSize(maxAttachmentSize int) int {
	size := maxAttachmentSize - chunk.LZ4MaxExpansion(maxAttachmentSize) - headerMargin
	if size < 0 {
		return 0
	}
	return size
}
