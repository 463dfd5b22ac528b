package readstream

import "chatfs/internal/index"

// chunkTask is one chunk selected to satisfy a read: the slice of its
// decoded plaintext that falls inside the requested window, and where
// that slice lands in the caller's buffer.
type chunkTask struct {
	chunkIndex int
	url        string
	srcOffset  int
	srcLen     int
	dstOffset  int
}

// planRead walks entry.chunks computing, for every chunk whose
// plaintext range overlaps [fileOffset, fileOffset+count), the exact
// source slice to copy and the exact destination offset to copy it to.
//
// This is the alignment-correct replacement for the documented source
// bug: a chunk that only partially overlaps the requested window
// contributes only its overlapping bytes, not its whole body.
// chunkPlainSize is the plaintext length used for every chunk but the
// last, which is sized to entry.length's remainder.
func planRead(entry *index.Entry, chunkPlainSize int, fileOffset, count int64) ([]chunkTask, int64) {
	if count <= 0 || fileOffset >= int64(entry.Length) || chunkPlainSize <= 0 {
		return nil, 0
	}

	end := fileOffset + count
	if end > int64(entry.Length) {
		end = int64(entry.Length)
	}

	var tasks []chunkTask
	cursor := int64(0)
	for i, c := range entry.Chunks {
		plainLen := int64(chunkPlainSize)
		if i == len(entry.Chunks)-1 {
			plainLen = int64(entry.Length) - cursor
		}
		chunkStart := cursor
		chunkEnd := cursor + plainLen
		cursor = chunkEnd

		if chunkEnd <= fileOffset || chunkStart >= end {
			continue
		}

		overlapStart := max64(chunkStart, fileOffset)
		overlapEnd := min64(chunkEnd, end)

		tasks = append(tasks, chunkTask{
			chunkIndex: i,
			url:        c.URL,
			srcOffset:  int(overlapStart - chunkStart),
			srcLen:     int(overlapEnd - overlapStart),
			dstOffset:  int(overlapStart - fileOffset),
		})
	}

	return tasks, end - fileOffset
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
