package block

// Two bit-level codecs share this file. The Huffman stage uses an MSB-first
// stream read in write order; the FSE stage uses an LSB-first stream read
// backwards from a sentinel bit, as finite-state coders emit their symbols in
// reverse.

// msbWriter packs codes most-significant-bit first.
type msbWriter struct {
	out  []byte
	acc  uint64
	nBit uint
}

func (w *msbWriter) writeBits(code uint32, width uint8) {
	w.acc = (w.acc << width) | uint64(code)
	w.nBit += uint(width)

	for w.nBit >= 8 {
		w.nBit -= 8
		w.out = append(w.out, byte(w.acc>>w.nBit))
	}
}

// close pads the final partial byte with zero bits. Readers must know the
// symbol count in advance; padding never decodes as data.
func (w *msbWriter) close() []byte {
	if w.nBit > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nBit)))
		w.nBit = 0
	}

	return w.out
}

// msbReader consumes an msbWriter stream bit by bit.
type msbReader struct {
	data []byte
	pos  int // absolute bit position
}

func (r *msbReader) readBit() (uint32, bool) {
	byteIdx := r.pos >> 3
	if byteIdx >= len(r.data) {
		return 0, false
	}

	bit := uint32(r.data[byteIdx]>>(7-uint(r.pos&7))) & 1
	r.pos++

	return bit, true
}

// lsbWriter packs values least-significant-bit first, for streams that are
// consumed backwards.
type lsbWriter struct {
	out  []byte
	acc  uint64
	nBit uint
}

func (w *lsbWriter) writeBits(value uint32, width uint8) {
	w.acc |= uint64(value&((1<<width)-1)) << w.nBit
	w.nBit += uint(width)

	for w.nBit >= 8 {
		w.out = append(w.out, byte(w.acc))
		w.acc >>= 8
		w.nBit -= 8
	}
}

// close appends a single 1 sentinel bit and zero-pads to a byte boundary.
// The sentinel lets the backward reader locate the end of the bit sequence.
func (w *lsbWriter) close() []byte {
	w.writeBits(1, 1)
	if w.nBit > 0 {
		w.out = append(w.out, byte(w.acc))
		w.acc = 0
		w.nBit = 0
	}

	return w.out
}

// lsbBackReader reads an lsbWriter stream in reverse write order.
type lsbBackReader struct {
	data     []byte
	bitsLeft int
	corrupt  bool
}

// newLSBBackReader positions the reader just below the sentinel bit.
func newLSBBackReader(data []byte) (*lsbBackReader, error) {
	if len(data) == 0 {
		return nil, ErrCorruptStream
	}

	last := data[len(data)-1]
	if last == 0 {
		// Sentinel bit missing: not a valid stream tail.
		return nil, ErrCorruptStream
	}

	sentinel := 7
	for last>>uint(sentinel)&1 == 0 {
		sentinel--
	}

	return &lsbBackReader{
		data:     data,
		bitsLeft: (len(data)-1)*8 + sentinel,
	}, nil
}

// readBits returns the most recently written width bits. Underflow marks the
// reader corrupt and returns zero.
func (r *lsbBackReader) readBits(width uint8) uint32 {
	r.bitsLeft -= int(width)
	if r.bitsLeft < 0 {
		r.corrupt = true
		return 0
	}

	byteIdx := r.bitsLeft >> 3
	bitOff := uint(r.bitsLeft & 7)

	var v uint64
	for k := 0; k < 4 && byteIdx+k < len(r.data); k++ {
		v |= uint64(r.data[byteIdx+k]) << (8 * uint(k))
	}

	return uint32(v>>bitOff) & ((1 << width) - 1)
}
