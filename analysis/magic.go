package analysis

import (
	"bytes"

	"github.com/arloliu/squash/format"
)

// containerSignature maps a magic-byte prefix to the category it implies.
// A match overrides the statistical classification outright.
type containerSignature struct {
	prefix   []byte
	offset   int
	category format.DataCategory
}

var containerSignatures = []containerSignature{
	// Images.
	{prefix: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, category: format.CategoryImage},
	{prefix: []byte{0xff, 0xd8, 0xff}, category: format.CategoryImage},
	{prefix: []byte("GIF87a"), category: format.CategoryImage},
	{prefix: []byte("GIF89a"), category: format.CategoryImage},
	{prefix: []byte("BM"), category: format.CategoryImage},
	{prefix: []byte("WEBP"), offset: 8, category: format.CategoryImage},

	// Audio.
	{prefix: []byte("WAVE"), offset: 8, category: format.CategoryAudio},
	{prefix: []byte("ID3"), category: format.CategoryAudio},
	{prefix: []byte("fLaC"), category: format.CategoryAudio},
	{prefix: []byte("OggS"), category: format.CategoryAudio},

	// Already-compressed containers.
	{prefix: []byte{0x1f, 0x8b}, category: format.CategoryCompressed},
	{prefix: []byte{0x28, 0xb5, 0x2f, 0xfd}, category: format.CategoryCompressed},
	{prefix: []byte{0x04, 0x22, 0x4d, 0x18}, category: format.CategoryCompressed}, // lz4 frame
	{prefix: []byte("PK\x03\x04"), category: format.CategoryCompressed},
	{prefix: []byte("7z\xbc\xaf\x27\x1c"), category: format.CategoryCompressed},
	{prefix: []byte("BZh"), category: format.CategoryCompressed},
}

// sniffContainer checks known container signatures. Only buffers of at least
// magicMinLen bytes are sniffed so offset signatures stay in bounds.
func sniffContainer(data []byte) (format.DataCategory, bool) {
	if len(data) < magicMinLen {
		return format.CategoryMixed, false
	}

	for _, sig := range containerSignatures {
		end := sig.offset + len(sig.prefix)
		if end <= len(data) && bytes.Equal(data[sig.offset:end], sig.prefix) {
			return sig.category, true
		}
	}

	return format.CategoryMixed, false
}
