package baseline

import (
	"fmt"

	"github.com/arloliu/squash/format"
)

// Compressor compresses one buffer at a time.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
//   - Internal buffers may be reused for efficiency
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a buffer produced by the matching Compressor. The
// input format is validated; corrupted or foreign data returns an error.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. All implementations in this package are
// stateless values, safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.ReferenceCodec]Codec{
	format.ReferenceNone: NewNoOpCodec(),
	format.ReferenceLZ4:  NewLZ4Codec(),
	format.ReferenceS2:   NewS2Codec(),
	format.ReferenceZstd: NewZstdCodec(),
}

// GetCodec retrieves the built-in Codec for a reference codec id.
func GetCodec(ref format.ReferenceCodec) (Codec, error) {
	if codec, ok := builtinCodecs[ref]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported reference codec: %s", ref)
}

// Codecs returns the reference codec ids a benchmark run compares against,
// in a stable order.
func Codecs() []format.ReferenceCodec {
	return []format.ReferenceCodec{
		format.ReferenceLZ4,
		format.ReferenceS2,
		format.ReferenceZstd,
	}
}
