package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatfs/internal/chunk"
)

func TestChunkDataSizeSatisfiesInvariant(t *testing.T) {
	for _, max := range []int{DefaultMaxAttachmentSize, 1024, 256 * 1024} {
		size := ChunkDataSize(max)
		assert.LessOrEqual(t, size+chunk.LZ4MaxExpansion(size)+headerMargin, max)
	}
}
