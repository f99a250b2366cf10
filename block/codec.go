package block

import (
	"encoding/binary"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/squash/cpu"
	"github.com/arloliu/squash/format"
	"github.com/arloliu/squash/internal/pool"
)

// Block framing constants. A stream is a sequence of independently coded
// blocks, each preceded by a 5-byte header; the final block carries the last
// flag and nothing may follow it.
const (
	// MinBlockSize is the block size granularity; configured sizes must be
	// positive multiples of it.
	MinBlockSize = 4096

	// MaxBlockSize caps configured block sizes. Payload lengths must fit the
	// u32 frame header and section lengths are bounded on decode, so a block
	// beyond this could not round trip.
	MaxBlockSize = maxSectionLen

	// parallelThreshold is the minimum input-to-block ratio before parallel
	// encoding pays for its goroutine overhead.
	parallelThreshold = 2
)

// EncodeParams configures one EncodeAll call.
type EncodeParams struct {
	// Algorithm selects the block coding. AlgoAuto is not valid here; the
	// caller resolves it before reaching the codec.
	Algorithm format.Algorithm

	// Level tunes block size and match-table size.
	Level format.Level

	// BlockSize overrides the level-derived block size when non-zero. It
	// must be a positive multiple of MinBlockSize.
	BlockSize int

	// Parallel enables concurrent block encoding for inputs spanning
	// several blocks. Output is identical to the serial path.
	Parallel bool

	// Workers caps encoding concurrency; zero means GOMAXPROCS.
	Workers int
}

// Codec encodes and decodes block streams using the capability kernel it was
// built with.
type Codec struct {
	kernel *cpu.Kernel
}

// NewCodec creates a Codec bound to kernel. A nil kernel resolves the host's
// best supported tier.
func NewCodec(kernel *cpu.Kernel) *Codec {
	if kernel == nil {
		kernel = cpu.Resolve()
	}

	return &Codec{kernel: kernel}
}

// BlockSizeFor returns the block size a level implies. Higher levels use
// smaller blocks so entropy tables adapt to local statistics; the high-ratio
// algorithm halves the size again.
func BlockSizeFor(level format.Level, algo format.Algorithm) int {
	var size int
	switch level {
	case format.LevelFastest:
		size = 1 << 20
	case format.LevelFast:
		size = 512 << 10
	case format.LevelDefault:
		size = 256 << 10
	case format.LevelBest:
		size = 128 << 10
	default:
		size = 64 << 10
	}

	if algo == format.AlgoHighRatio {
		size >>= 1
	}

	return size
}

// EncodeAll compresses src into a self-framed block stream. The stream always
// round-trips through DecodeAll, including for empty input.
func (c *Codec) EncodeAll(src []byte, params EncodeParams) ([]byte, error) {
	blockSize := params.BlockSize
	if blockSize == 0 {
		blockSize = BlockSizeFor(params.Level, params.Algorithm)
	}
	if blockSize < MinBlockSize || blockSize > MaxBlockSize || blockSize%MinBlockSize != 0 {
		return nil, ErrEncodingOverflow
	}

	nBlocks := (len(src) + blockSize - 1) / blockSize
	if nBlocks == 0 {
		nBlocks = 1
	}

	encoded := make([][]byte, nBlocks)

	if params.Parallel && len(src) > parallelThreshold*blockSize {
		workers := params.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}

		var g errgroup.Group
		g.SetLimit(workers)

		for b := 0; b < nBlocks; b++ {
			b := b
			g.Go(func() error {
				encoded[b] = c.encodeBlock(blockAt(src, b, blockSize), params, b == nBlocks-1)
				return nil
			})
		}

		// Block encoding cannot fail; Wait only joins the workers.
		_ = g.Wait()
	} else {
		for b := 0; b < nBlocks; b++ {
			encoded[b] = c.encodeBlock(blockAt(src, b, blockSize), params, b == nBlocks-1)
		}
	}

	// Assemble through a pooled stream buffer, then hand back an exact-size
	// copy so the pooled capacity is never retained by the caller.
	total := 0
	for _, e := range encoded {
		total += len(e)
	}

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)
	buf.Grow(total)

	for _, e := range encoded {
		_, _ = buf.Write(e)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

func blockAt(src []byte, idx, blockSize int) []byte {
	start := idx * blockSize
	end := start + blockSize
	if start > len(src) {
		return nil
	}
	if end > len(src) {
		end = len(src)
	}

	return src[start:end]
}

// encodeBlock produces one framed block: header plus payload. When the coded
// payload does not beat the raw bytes the block is stored raw regardless of
// the requested algorithm.
func (c *Codec) encodeBlock(raw []byte, params EncodeParams, last bool) []byte {
	tag := format.BlockTagRaw
	payload := raw

	if params.Algorithm != format.AlgoFastCopy && len(raw) > 0 {
		// The coded attempt builds into pooled per-block scratch; the payload
		// is copied into the framed output below, before the buffer returns
		// to the pool.
		scratch := pool.GetBlockBuffer()
		defer pool.PutBlockBuffer(scratch)

		coded, codedTag := c.codeBlock(scratch.Bytes(), raw, params)
		scratch.B = coded

		if len(coded) < len(raw) {
			tag = codedTag
			payload = coded
		}
	}

	out := make([]byte, 0, format.BlockHeaderSize+len(payload))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, format.BlockFlags(tag, last))
	out = append(out, payload...)

	return out
}

// codeBlock runs the LZ77 + entropy pipeline for one block, appending the
// payload to dst: [u32 rawLen][uvarint nSeq][literals][litLens][matchLens]
// [offsets], each section independently coded.
func (c *Codec) codeBlock(dst []byte, raw []byte, params EncodeParams) ([]byte, uint8) {
	seqs, literals := findSequences(raw, params.Level, c.kernel)
	streams := buildStreams(seqs)

	litCoder, seqCoder, tag := codersFor(params.Algorithm)

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(raw)))
	dst = binary.AppendUvarint(dst, uint64(len(seqs)))
	dst = appendSection(dst, literals, litCoder)
	dst = appendSection(dst, streams.litLens, seqCoder)
	dst = appendSection(dst, streams.matchLens, seqCoder)
	dst = appendSection(dst, streams.offsets, seqCoder)

	return dst, tag
}

// codersFor maps an algorithm to its literal and sequence section coders.
// The high-ratio mode codes literals with Huffman and the sequence streams
// with FSE, whose state machine handles their skewed distributions better.
func codersFor(algo format.Algorithm) (sectionCoder, sectionCoder, uint8) {
	switch algo {
	case format.AlgoLZFSE:
		return coderFSE, coderFSE, format.BlockTagFSE
	case format.AlgoHighRatio:
		return coderHuffman, coderFSE, format.BlockTagHighRatio
	default:
		return coderHuffman, coderHuffman, format.BlockTagHuffman
	}
}

// DecodeAll decompresses a block stream produced by EncodeAll. Truncated
// input, trailing bytes after the last block, or a stream that never sets the
// last flag all return ErrCorruptStream with no partial output.
func (c *Codec) DecodeAll(src []byte) ([]byte, error) {
	var out []byte
	sawLast := false

	for len(src) > 0 {
		if sawLast {
			// Bytes after the final block.
			return nil, ErrCorruptStream
		}
		if len(src) < format.BlockHeaderSize {
			return nil, ErrCorruptStream
		}

		payloadLen := int(binary.LittleEndian.Uint32(src))
		flags := src[format.BlockHeaderSize-1]
		src = src[format.BlockHeaderSize:]

		if payloadLen > len(src) {
			return nil, ErrCorruptStream
		}

		payload := src[:payloadLen]
		src = src[payloadLen:]
		sawLast = flags&format.FlagLastBlock != 0

		switch format.BlockTag(flags) {
		case format.BlockTagRaw:
			out = append(out, payload...)
		default:
			raw, err := decodeCodedBlock(payload)
			if err != nil {
				return nil, err
			}
			out = append(out, raw...)
		}
	}

	if !sawLast {
		return nil, ErrCorruptStream
	}

	return out, nil
}

// decodeCodedBlock reverses codeBlock. Section mode bytes are
// self-describing, so all coded block tags share one decode path.
func decodeCodedBlock(payload []byte) ([]byte, error) {
	if len(payload) < 5 {
		return nil, ErrCorruptStream
	}

	rawLen := int(binary.LittleEndian.Uint32(payload))
	payload = payload[4:]

	nSeq, n := binary.Uvarint(payload)
	if n <= 0 || rawLen > maxSectionLen {
		return nil, ErrCorruptStream
	}
	payload = payload[n:]

	literals, payload, err := parseSection(payload)
	if err != nil {
		return nil, err
	}

	var streams sequenceStreams
	streams.litLens, payload, err = parseSection(payload)
	if err != nil {
		return nil, err
	}

	streams.matchLens, payload, err = parseSection(payload)
	if err != nil {
		return nil, err
	}

	streams.offsets, payload, err = parseSection(payload)
	if err != nil {
		return nil, err
	}

	if len(payload) != 0 {
		return nil, ErrCorruptStream
	}

	return replaySequences(int(nSeq), literals, streams, rawLen)
}
