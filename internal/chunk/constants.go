package chunk

// Version is the only wire version this codec understands (spec §3).
const Version byte = 0x01

// HashAlgoMD5 is the only hash algorithm id this codec understands.
const HashAlgoMD5 byte = 0x01

const (
	versionSize      = 1
	indexSize        = 4
	isCompressedSize = 1
	isEncryptedSize  = 1
	originalSize     = 4
	storedSizeSize   = 4

	// headerSize is the number of fixed-width bytes preceding the body.
	headerSize = versionSize + indexSize + isCompressedSize + isEncryptedSize + originalSize + storedSizeSize

	hashAlgoSize = 1
	md5HashSize  = 16

	// trailerSize is the number of fixed-width bytes following the body.
	trailerSize = hashAlgoSize + md5HashSize
)

// KeySize is the required length of an AES-256-GCM encryption key.
const KeySize = 32

// gcmNonceSize is the length of the random IV prepended to an encrypted body.
const gcmNonceSize = 12

// gcmTagSize is the length of the authentication tag GCM appends to its
// ciphertext.
const gcmTagSize = 16

// CompressionLevel is the fixed LZ4 HC level spec §4.A mandates;
// compressLZ4HC applies it as pierrec/lz4's lz4.Level6.
const CompressionLevel = 6
