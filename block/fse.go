package block

import (
	"encoding/binary"
	"math/bits"
)

// Finite-state-entropy coder (tANS). Symbol frequencies are rescaled so they
// sum to a power-of-two table size, the table is filled with the standard
// coprime-step spread, and symbols are emitted in reverse through a state
// machine whose bit output the decoder replays backwards.
const (
	fseMinTableLog = 5
	fseMaxTableLog = 11
)

// fseCompress encodes src and returns the section body:
// [u8 tableLog][u16 numSymbols][u16 normalized counts...][bitstream].
// ok=false when src has fewer than two distinct symbols.
func fseCompress(src []byte) ([]byte, bool) {
	var freq [256]int
	numSymbols := 0
	distinct := 0
	for _, b := range src {
		if freq[b] == 0 {
			distinct++
		}
		freq[b]++
		if int(b)+1 > numSymbols {
			numSymbols = int(b) + 1
		}
	}

	if distinct < 2 {
		return nil, false
	}

	tableLog := fseOptimalTableLog(len(src), distinct)
	norm := fseNormalize(freq[:numSymbols], len(src), tableLog)

	out := make([]byte, 0, len(src)/2+2*numSymbols+8)
	out = append(out, byte(tableLog))
	out = binary.LittleEndian.AppendUint16(out, uint16(numSymbols))
	for _, n := range norm {
		out = binary.LittleEndian.AppendUint16(out, uint16(n))
	}

	nextState, symbolTT := fseBuildCTable(norm, tableLog)

	w := lsbWriter{out: out}

	// Prime the state with the last symbol, then feed the rest in reverse;
	// the decoder reads the stream backwards and emits symbols forward.
	last := src[len(src)-1]
	tt := symbolTT[last]
	nbBitsOut := uint32(tt.deltaNbBits+(1<<15)) >> 16
	state := uint32(nextState[int32(nbBitsOut<<16-tt.deltaNbBits)>>nbBitsOut+tt.deltaFindState])

	for i := len(src) - 2; i >= 0; i-- {
		tt = symbolTT[src[i]]
		nbBits := (state + tt.deltaNbBits) >> 16
		w.writeBits(state, uint8(nbBits))
		state = uint32(nextState[int32(state>>nbBits)+tt.deltaFindState])
	}

	w.writeBits(state, uint8(tableLog))

	return w.close(), true
}

// fseDecompress decodes a fseCompress section body into exactly rawLen bytes.
func fseDecompress(src []byte, rawLen int) ([]byte, error) {
	if len(src) < 3 {
		return nil, ErrCorruptStream
	}

	tableLog := int(src[0])
	if tableLog < fseMinTableLog || tableLog > fseMaxTableLog {
		return nil, ErrCorruptStream
	}

	numSymbols := int(binary.LittleEndian.Uint16(src[1:]))
	if numSymbols < 2 || numSymbols > 256 {
		return nil, ErrCorruptStream
	}

	headerEnd := 3 + 2*numSymbols
	if len(src) < headerEnd {
		return nil, ErrCorruptStream
	}

	tableSize := 1 << tableLog
	norm := make([]int, numSymbols)
	sum := 0
	for s := 0; s < numSymbols; s++ {
		norm[s] = int(binary.LittleEndian.Uint16(src[3+2*s:]))
		sum += norm[s]
	}

	// A table that does not sum to its size cannot have been produced by
	// this encoder.
	if sum != tableSize {
		return nil, ErrCorruptStream
	}

	table := fseBuildDTable(norm, tableLog)

	r, err := newLSBBackReader(src[headerEnd:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, rawLen)
	state := r.readBits(uint8(tableLog))

	for i := 0; i < rawLen; i++ {
		e := table[state]
		out[i] = e.symbol

		// The final symbol was primed without bits on the encode side, so
		// there is no state transition left to read.
		if i == rawLen-1 {
			break
		}

		state = uint32(e.newState) + r.readBits(e.nbBits)
		if int(state) >= tableSize {
			return nil, ErrCorruptStream
		}
	}

	if r.corrupt {
		return nil, ErrCorruptStream
	}

	return out, nil
}

// fseOptimalTableLog mirrors the usual heuristic: scale with input size,
// but keep enough slots for every distinct symbol.
func fseOptimalTableLog(srcLen, distinct int) int {
	tableLog := bits.Len(uint(srcLen-1)) - 2
	if tableLog > fseMaxTableLog {
		tableLog = fseMaxTableLog
	}

	minNeeded := bits.Len(uint(distinct - 1))
	if tableLog < minNeeded {
		tableLog = minNeeded
	}
	if tableLog < fseMinTableLog {
		tableLog = fseMinTableLog
	}

	return tableLog
}

// fseNormalize rescales freq to sum exactly to 1<<tableLog. Every present
// symbol keeps at least one slot; the remainder after flooring goes to the
// symbols with the largest fractional remainders (ties to the lower symbol),
// and any excess from the ≥1 floor is reclaimed from the largest counts.
func fseNormalize(freq []int, total, tableLog int) []int {
	tableSize := 1 << tableLog
	norm := make([]int, len(freq))
	remainders := make([]float64, len(freq))

	assigned := 0
	for s, f := range freq {
		if f == 0 {
			continue
		}

		exact := float64(f) * float64(tableSize) / float64(total)
		norm[s] = int(exact)
		remainders[s] = exact - float64(norm[s])
		if norm[s] == 0 {
			norm[s] = 1
			remainders[s] = 0
		}
		assigned += norm[s]
	}

	for assigned < tableSize {
		best := -1
		for s := range freq {
			if freq[s] == 0 {
				continue
			}
			if best == -1 || remainders[s] > remainders[best] {
				best = s
			}
		}

		norm[best]++
		remainders[best] = 0
		assigned++
	}

	for assigned > tableSize {
		largest := -1
		for s := range freq {
			if norm[s] > 1 && (largest == -1 || norm[s] > norm[largest]) {
				largest = s
			}
		}

		norm[largest]--
		assigned--
	}

	return norm
}

type fseSymbolTT struct {
	deltaNbBits    uint32
	deltaFindState int32
}

type fseDecodeEntry struct {
	symbol   byte
	nbBits   uint8
	newState uint16
}

// fseSpread places symbol occurrences over the table with the standard
// coprime step so encoder and decoder derive identical layouts.
func fseSpread(norm []int, tableLog int) []byte {
	tableSize := 1 << tableLog
	mask := tableSize - 1
	step := (tableSize >> 1) + (tableSize >> 3) + 3

	tableSymbol := make([]byte, tableSize)
	pos := 0
	for s, n := range norm {
		for i := 0; i < n; i++ {
			tableSymbol[pos] = byte(s)
			pos = (pos + step) & mask
		}
	}

	return tableSymbol
}

func fseBuildCTable(norm []int, tableLog int) ([]uint16, []fseSymbolTT) {
	tableSize := 1 << tableLog
	tableSymbol := fseSpread(norm, tableLog)

	cumul := make([]int, len(norm))
	total := 0
	for s, n := range norm {
		cumul[s] = total
		total += n
	}

	nextState := make([]uint16, tableSize)
	for idx := 0; idx < tableSize; idx++ {
		s := tableSymbol[idx]
		nextState[cumul[s]] = uint16(tableSize + idx)
		cumul[s]++
	}

	symbolTT := make([]fseSymbolTT, len(norm))
	running := 0
	for s, n := range norm {
		switch {
		case n == 0:
			continue
		case n == 1:
			symbolTT[s].deltaNbBits = uint32(tableLog<<16) - uint32(tableSize)
			symbolTT[s].deltaFindState = int32(running - 1)
			running++
		default:
			maxBitsOut := tableLog - (bits.Len(uint(n-1)) - 1)
			minStatePlus := n << maxBitsOut
			symbolTT[s].deltaNbBits = uint32(maxBitsOut<<16) - uint32(minStatePlus)
			symbolTT[s].deltaFindState = int32(running - n)
			running += n
		}
	}

	return nextState, symbolTT
}

func fseBuildDTable(norm []int, tableLog int) []fseDecodeEntry {
	tableSize := 1 << tableLog
	tableSymbol := fseSpread(norm, tableLog)

	symbolNext := make([]int, len(norm))
	copy(symbolNext, norm)

	table := make([]fseDecodeEntry, tableSize)
	for u := 0; u < tableSize; u++ {
		s := tableSymbol[u]
		nextState := symbolNext[s]
		symbolNext[s]++

		nbBits := uint8(tableLog - (bits.Len(uint(nextState)) - 1))
		table[u] = fseDecodeEntry{
			symbol:   s,
			nbBits:   nbBits,
			newState: uint16((nextState << nbBits) - tableSize),
		}
	}

	return table
}
