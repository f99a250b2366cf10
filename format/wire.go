package format

// Block framing: each block is [u32 little-endian payload length][u8 flags][payload].
// The stream ends at the block whose FlagLastBlock bit is set.
const (
	BlockHeaderSize = 5

	FlagLastBlock = 0x01 // bit 0: final block of the stream

	// Bits 1-2 carry the block algorithm tag.
	BlockTagShift = 1
	BlockTagMask  = 0x06
)

// Block algorithm tags stored in the flag byte.
const (
	BlockTagRaw       uint8 = 0x0 // stored payload, no entropy stage
	BlockTagHuffman   uint8 = 0x1 // canonical Huffman entropy stage
	BlockTagFSE       uint8 = 0x2 // finite-state-entropy stage
	BlockTagHighRatio uint8 = 0x3 // Huffman literals, FSE sequence streams
)

// BlockFlags assembles a flag byte from an algorithm tag and the last-block marker.
func BlockFlags(tag uint8, last bool) uint8 {
	flags := (tag << BlockTagShift) & BlockTagMask
	if last {
		flags |= FlagLastBlock
	}

	return flags
}

// BlockTag extracts the algorithm tag from a flag byte.
func BlockTag(flags uint8) uint8 {
	return (flags & BlockTagMask) >> BlockTagShift
}
