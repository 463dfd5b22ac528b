package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Serialize encodes idx into a self-describing binary format: a version
// byte, a build timestamp, then a length-prefixed run of entries, each
// with a length-prefixed path, fixed-width length/mtime/hash-length
// fields, an MD5 hash, and a length-prefixed run of chunks.
func (idx *Index) Serialize() ([]byte, error) {
	buf := &bytes.Buffer{}

	buf.WriteByte(Version)
	writeTime(buf, idx.BuiltAt)

	entries := idx.Entries()
	writeUint32(buf, uint32(len(entries)))

	for _, e := range entries {
		if err := writeString(buf, e.RelativePath); err != nil {
			return nil, err
		}
		writeUint64(buf, e.Length)
		writeTime(buf, e.ModTime)

		if len(e.Hash) > 0xFF {
			return nil, fmt.Errorf("index: hash too long for %s", e.RelativePath)
		}
		buf.WriteByte(byte(len(e.Hash)))
		buf.Write(e.Hash)

		writeUint32(buf, uint32(len(e.Chunks)))
		for _, c := range e.Chunks {
			if err := writeString(buf, c.URL); err != nil {
				return nil, err
			}
			writeUint32(buf, c.Size)
		}
	}

	return buf.Bytes(), nil
}

// Deserialize is the inverse of Serialize.
func Deserialize(data []byte) (*Index, error) {
	r := &reader{data: data}

	version, err := r.byte_()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, ErrUnsupportedIndexVersion
	}

	builtAt, err := r.timestamp()
	if err != nil {
		return nil, err
	}
	idx := New(builtAt)

	entryCount, err := r.uint32()
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < entryCount; i++ {
		path, err := r.string_()
		if err != nil {
			return nil, err
		}
		length, err := r.uint64()
		if err != nil {
			return nil, err
		}
		mtime, err := r.timestamp()
		if err != nil {
			return nil, err
		}
		hashLen, err := r.byte_()
		if err != nil {
			return nil, err
		}
		hash, err := r.bytes(int(hashLen))
		if err != nil {
			return nil, err
		}
		chunkCount, err := r.uint32()
		if err != nil {
			return nil, err
		}
		chunks := make([]FileChunk, 0, chunkCount)
		for j := uint32(0); j < chunkCount; j++ {
			url, err := r.string_()
			if err != nil {
				return nil, err
			}
			size, err := r.uint32()
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, FileChunk{URL: url, Size: size})
		}

		idx.Put(&Entry{
			RelativePath: path,
			Length:       length,
			ModTime:      mtime,
			Hash:         hash,
			Chunks:       chunks,
		})
	}

	return idx, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	writeUint64(buf, uint64(v))
}

// writeTime encodes t as Unix seconds plus nanoseconds, a form that,
// unlike UnixNano, also covers the zero time.Time.
func writeTime(buf *bytes.Buffer, t time.Time) {
	writeInt64(buf, t.Unix())
	writeUint32(buf, uint32(t.Nanosecond()))
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("index: string too long: %d bytes", len(s))
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
	return nil
}

// reader sequentially decodes the fixed-width/length-prefixed fields
// Serialize writes, failing with ErrTruncated once data runs out.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) need(n int) error {
	if len(r.data)-r.pos < n {
		return ErrTruncated
	}
	return nil
}

func (r *reader) byte_() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := append([]byte(nil), r.data[r.pos:r.pos+n]...)
	r.pos += n
	return out, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) int64() (int64, error) {
	v, err := r.uint64()
	return int64(v), err
}

func (r *reader) timestamp() (time.Time, error) {
	sec, err := r.int64()
	if err != nil {
		return time.Time{}, err
	}
	nsec, err := r.uint32()
	return time.Unix(sec, int64(nsec)).UTC(), err
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) string_() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
