package baseline

// ZstdCodec is the Zstandard reference codec, the usual ratio-oriented
// comparison point. The implementation is selected at build time: cgo builds
// bind the libzstd wrapper, pure-Go builds use the klauspost port.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a Zstandard reference codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
