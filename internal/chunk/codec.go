// Package chunk implements the versioned binary chunk container described
// in the spec: a compressed, optionally encrypted payload with a fixed
// header and an MD5 integrity trailer over the plaintext payload.
//
// Ordering is fixed both ways: encode compresses then encrypts then writes
// the header; decode reads the header then decrypts then decompresses
// then verifies the hash. The hash is always computed over the plaintext
// payload, never over the stored (compressed/encrypted) body.
package chunk

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// EncodeOptions controls how Encode transforms a payload before writing
// the wire container.
type EncodeOptions struct {
	// Compress selects LZ4 HC compression of the payload.
	Compress bool
	// EncryptionKey, if non-empty, must be exactly KeySize bytes and
	// selects AES-256-GCM encryption of the (possibly compressed) body.
	EncryptionKey []byte
}

// Decoded is the result of a successful Decode.
type Decoded struct {
	Payload []byte
	Index   uint32
	Hash    [md5.Size]byte
}

// Encode builds the on-wire container for payload at the given chunk
// index, per spec §4.A: hash the plaintext, compress if requested,
// encrypt if a key is supplied, then write the fixed header.
func Encode(payload []byte, index uint32, opts EncodeOptions) ([]byte, error) {
	if len(opts.EncryptionKey) != 0 && len(opts.EncryptionKey) != KeySize {
		return nil, ErrInvalidKeySize
	}

	hash := md5.Sum(payload)
	originalLen := len(payload)

	body := payload
	usedCompression := false
	if opts.Compress {
		compressed, ok, err := compressLZ4HC(payload)
		if err != nil {
			return nil, fmt.Errorf("chunk: compress: %w", err)
		}
		if ok {
			body = compressed
			usedCompression = true
		}
	}

	isEncrypted := len(opts.EncryptionKey) != 0
	if isEncrypted {
		encrypted, err := encryptGCM(opts.EncryptionKey, body)
		if err != nil {
			return nil, fmt.Errorf("chunk: encrypt: %w", err)
		}
		body = encrypted
	}

	out := make([]byte, headerSize+len(body)+trailerSize)
	out[0] = Version
	binary.LittleEndian.PutUint32(out[1:5], index)
	if usedCompression {
		out[5] = 0x01
	}
	if isEncrypted {
		out[6] = 0x01
	}
	binary.LittleEndian.PutUint32(out[7:11], uint32(originalLen))
	binary.LittleEndian.PutUint32(out[11:15], uint32(len(body)))
	copy(out[headerSize:], body)
	trailerOffset := headerSize + len(body)
	out[trailerOffset] = HashAlgoMD5
	copy(out[trailerOffset+hashAlgoSize:], hash[:])

	return out, nil
}

// Decode reverses Encode, returning the plaintext payload, the chunk
// index, and the verified MD5 hash. encryptionKey must match whatever
// key (if any) the chunk was encoded with.
func Decode(data []byte, encryptionKey []byte) (Decoded, error) {
	if len(data) < headerSize {
		return Decoded{}, ErrTruncated
	}
	if data[0] != Version {
		return Decoded{}, ErrUnsupportedChunkVersion
	}

	index := binary.LittleEndian.Uint32(data[1:5])
	isCompressed := data[5] != 0x00
	isEncrypted := data[6] != 0x00
	originalLen := binary.LittleEndian.Uint32(data[7:11])
	storedLen := binary.LittleEndian.Uint32(data[11:15])

	bodyEnd := headerSize + int(storedLen)
	if len(data) < bodyEnd+trailerSize {
		return Decoded{}, ErrTruncated
	}
	body := data[headerSize:bodyEnd]

	hashAlgo := data[bodyEnd]
	if hashAlgo != HashAlgoMD5 {
		return Decoded{}, ErrUnknownHashAlgorithm
	}
	var wantHash [md5.Size]byte
	copy(wantHash[:], data[bodyEnd+hashAlgoSize:bodyEnd+hashAlgoSize+md5HashSize])

	if isEncrypted {
		if len(encryptionKey) != KeySize {
			return Decoded{}, ErrInvalidKeySize
		}
		decrypted, err := decryptGCM(encryptionKey, body)
		if err != nil {
			return Decoded{}, err
		}
		body = decrypted
	}

	if isCompressed {
		decompressed, err := decompressLZ4HC(body, int(originalLen))
		if err != nil {
			return Decoded{}, err
		}
		body = decompressed
	}

	if uint32(len(body)) != originalLen {
		return Decoded{}, ErrDecompressionSizeMismatch
	}

	gotHash := md5.Sum(body)
	if gotHash != wantHash {
		return Decoded{}, ErrHashMismatch
	}

	return Decoded{Payload: body, Index: index, Hash: gotHash}, nil
}

// EncryptGCM encrypts plaintext with AES-256-GCM under key, prepending
// a random 12-byte nonce. It is exposed for callers that need raw
// per-piece encryption outside the chunk wire format, such as the
// index write path.
func EncryptGCM(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return encryptGCM(key, plaintext)
}

// DecryptGCM reverses EncryptGCM.
func DecryptGCM(key, data []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return decryptGCM(key, data)
}

// LZ4MaxExpansion returns the worst-case number of extra bytes LZ4 HC
// compression of an n-byte block could require over the input size,
// per pierrec/lz4's own block-size bound.
func LZ4MaxExpansion(n int) int {
	bound := lz4.CompressBlockBound(n)
	if bound <= n {
		return 0
	}
	return bound - n
}

// compressLZ4HC compresses src with LZ4 HC level 6. ok is false when lz4
// reports the block can't be shrunk (n == 0); callers should then store
// src uncompressed and leave IsCompressed unset.
func compressLZ4HC(src []byte) (dst []byte, ok bool, err error) {
	if len(src) == 0 {
		return []byte{}, false, nil
	}
	dst = make([]byte, lz4.CompressBlockBound(len(src)))
	c := lz4.CompressorHC{Level: lz4.Level6}
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	return dst[:n], true, nil
}

func decompressLZ4HC(src []byte, originalLen int) ([]byte, error) {
	dst := make([]byte, originalLen)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, ErrDecompressionSizeMismatch
	}
	if n != originalLen {
		return nil, ErrDecompressionSizeMismatch
	}
	return dst[:n], nil
}

func encryptGCM(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decryptGCM(key, data []byte) ([]byte, error) {
	if len(data) < gcmNonceSize+gcmTagSize {
		return nil, ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := data[:gcmNonceSize], data[gcmNonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
