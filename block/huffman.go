package block

import (
	"encoding/binary"
	"sort"
)

// Canonical length-limited Huffman coder over the byte alphabet. Code lengths
// are built by a two-queue pair merge over frequency-sorted symbols, clamped
// to huffMaxBits, and codes are assigned canonically: shorter codes first,
// ascending symbol order within a length. The serialized table is just the
// nibble-packed length array, which the decoder expands back into the same
// canonical assignment.
const huffMaxBits = 15

// huffCompress encodes src and returns the section body:
// [u16 numSymbols][nibble-packed lengths][bitstream]. It reports ok=false
// when src needs fewer than two distinct symbols (the caller stores or
// run-length encodes those).
func huffCompress(src []byte) ([]byte, bool) {
	var freq [256]int
	for _, b := range src {
		freq[b]++
	}

	lens, used := huffBuildLengths(freq[:])
	if used < 2 {
		return nil, false
	}

	codes := huffCanonicalCodes(lens[:])

	numSymbols := 0
	for sym := 0; sym < 256; sym++ {
		if lens[sym] > 0 {
			numSymbols = sym + 1
		}
	}

	out := make([]byte, 0, len(src)/2+numSymbols/2+8)
	out = binary.LittleEndian.AppendUint16(out, uint16(numSymbols))
	out = appendNibbles(out, lens[:numSymbols])

	w := msbWriter{out: out}
	for _, b := range src {
		w.writeBits(codes[b], lens[b])
	}

	return w.close(), true
}

// huffDecompress decodes a huffCompress section body into exactly rawLen bytes.
func huffDecompress(src []byte, rawLen int) ([]byte, error) {
	if len(src) < 2 {
		return nil, ErrCorruptStream
	}

	numSymbols := int(binary.LittleEndian.Uint16(src))
	if numSymbols < 2 || numSymbols > 256 {
		return nil, ErrCorruptStream
	}

	lens, rest, err := parseNibbles(src[2:], numSymbols)
	if err != nil {
		return nil, err
	}

	table, err := newHuffDecodeTable(lens)
	if err != nil {
		return nil, err
	}

	out := make([]byte, rawLen)
	r := msbReader{data: rest}

	for i := 0; i < rawLen; i++ {
		sym, ok := table.decodeOne(&r)
		if !ok {
			return nil, ErrCorruptStream
		}
		out[i] = sym
	}

	return out, nil
}

// huffBuildLengths computes code lengths from frequencies and returns the
// number of used symbols.
func huffBuildLengths(freq []int) ([256]uint8, int) {
	var lens [256]uint8

	leaves := make([]leafSym, 0, 256)
	for sym, f := range freq {
		if f > 0 {
			leaves = append(leaves, leafSym{sym: sym, freq: f})
		}
	}

	if len(leaves) < 2 {
		if len(leaves) == 1 {
			lens[leaves[0].sym] = 1
		}

		return lens, len(leaves)
	}

	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].freq != leaves[j].freq {
			return leaves[i].freq < leaves[j].freq
		}

		return leaves[i].sym < leaves[j].sym
	})

	// Two-queue merge: leaves are pre-sorted and internal nodes are produced
	// in nondecreasing weight order, so the two smallest candidates always
	// sit at the queue heads. Nodes 0..n-1 are leaves, the rest internal.
	type node struct {
		weight int
		parent int
	}

	n := len(leaves)
	nodes := make([]node, 0, 2*n-1)
	for _, lf := range leaves {
		nodes = append(nodes, node{weight: lf.freq, parent: -1})
	}

	leafHead, internalHead := 0, n

	takeSmallest := func() int {
		if leafHead < n && (internalHead >= len(nodes) || nodes[leafHead].weight <= nodes[internalHead].weight) {
			leafHead++
			return leafHead - 1
		}

		internalHead++

		return internalHead - 1
	}

	for len(nodes) < 2*n-1 {
		a := takeSmallest()
		b := takeSmallest()
		nodes = append(nodes, node{weight: nodes[a].weight + nodes[b].weight, parent: -1})
		nodes[a].parent = len(nodes) - 1
		nodes[b].parent = len(nodes) - 1
	}

	for i, lf := range leaves {
		depth := 0
		for p := nodes[i].parent; p != -1; p = nodes[p].parent {
			depth++
		}

		if depth > huffMaxBits {
			depth = huffMaxBits
		}
		lens[lf.sym] = uint8(depth)
	}

	huffEnforceKraft(&lens, leaves)

	return lens, n
}

type leafSym struct {
	sym  int
	freq int
}

// huffEnforceKraft repairs the Kraft sum after clamping over-long codes.
// Lengths are only ever increased, starting from the rarest symbols, so the
// code stays prefix-decodable (a deficit is acceptable, an excess is not).
func huffEnforceKraft(lens *[256]uint8, byFreqAsc []leafSym) {
	const limit = 1 << huffMaxBits

	kraft := 0
	for _, lf := range byFreqAsc {
		kraft += limit >> lens[lf.sym]
	}

	for kraft > limit {
		for _, lf := range byFreqAsc {
			if lens[lf.sym] < huffMaxBits {
				kraft -= limit >> (lens[lf.sym] + 1)
				lens[lf.sym]++

				if kraft <= limit {
					break
				}
			}
		}
	}
}

// huffCanonicalCodes assigns canonical codes from lengths: codes of equal
// length take ascending symbol order.
func huffCanonicalCodes(lens []uint8) [256]uint32 {
	var blCount [huffMaxBits + 1]int
	for _, l := range lens {
		if l > 0 {
			blCount[l]++
		}
	}

	var nextCode [huffMaxBits + 1]uint32
	code := uint32(0)
	for bitsN := 1; bitsN <= huffMaxBits; bitsN++ {
		code = (code + uint32(blCount[bitsN-1])) << 1
		nextCode[bitsN] = code
	}

	var codes [256]uint32
	for sym := 0; sym < len(lens); sym++ {
		if lens[sym] > 0 {
			codes[sym] = nextCode[lens[sym]]
			nextCode[lens[sym]]++
		}
	}

	return codes
}

// huffDecodeTable drives canonical decoding without a full lookup table:
// one (firstCode, count, base) triple per code length.
type huffDecodeTable struct {
	firstCode [huffMaxBits + 1]uint32
	count     [huffMaxBits + 1]int
	base      [huffMaxBits + 1]int
	symbols   []byte // ordered by (length, symbol)
}

func newHuffDecodeTable(lens []uint8) (*huffDecodeTable, error) {
	t := &huffDecodeTable{}

	kraft := 0
	used := 0
	for _, l := range lens {
		if l == 0 {
			continue
		}
		if l > huffMaxBits {
			return nil, ErrCorruptStream
		}
		t.count[l]++
		kraft += (1 << huffMaxBits) >> l
		used++
	}

	if used < 2 || kraft > 1<<huffMaxBits {
		return nil, ErrCorruptStream
	}

	code := uint32(0)
	base := 0
	for l := 1; l <= huffMaxBits; l++ {
		code = (code + uint32(t.count[l-1])) << 1
		t.firstCode[l] = code
		t.base[l] = base
		base += t.count[l]
	}

	t.symbols = make([]byte, used)
	var next [huffMaxBits + 1]int
	for sym, l := range lens {
		if l > 0 {
			t.symbols[t.base[l]+next[l]] = byte(sym)
			next[l]++
		}
	}

	return t, nil
}

func (t *huffDecodeTable) decodeOne(r *msbReader) (byte, bool) {
	code := uint32(0)
	for l := 1; l <= huffMaxBits; l++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, false
		}

		code = code<<1 | bit
		if d := int(code - t.firstCode[l]); code >= t.firstCode[l] && d < t.count[l] {
			return t.symbols[t.base[l]+d], true
		}
	}

	return 0, false
}

// appendNibbles packs values (each < 16) two per byte, low nibble first.
func appendNibbles(dst []byte, values []uint8) []byte {
	for i := 0; i < len(values); i += 2 {
		b := values[i] & 0x0f
		if i+1 < len(values) {
			b |= (values[i+1] & 0x0f) << 4
		}
		dst = append(dst, b)
	}

	return dst
}

// parseNibbles unpacks count nibble values and returns the remaining bytes.
func parseNibbles(src []byte, count int) ([]uint8, []byte, error) {
	packed := (count + 1) / 2
	if len(src) < packed {
		return nil, nil, ErrCorruptStream
	}

	values := make([]uint8, count)
	for i := 0; i < count; i++ {
		b := src[i/2]
		if i%2 == 1 {
			b >>= 4
		}
		values[i] = b & 0x0f
	}

	return values, src[packed:], nil
}
