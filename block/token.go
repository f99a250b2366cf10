package block

// Sequence streams. Each sequence contributes one entry to three parallel
// streams: literal length, match length (stored minus MinMatch), and a
// two-byte little-endian offset. Lengths use a short code byte with 255-run
// continuation, so the common small values stay one byte while long runs
// remain encodable.

const (
	lengthCodeMax   = 15
	lengthByteLimit = 255
)

// appendLength writes v as code byte min(v, 15) plus continuation bytes.
func appendLength(dst []byte, v int) []byte {
	if v < lengthCodeMax {
		return append(dst, byte(v))
	}

	dst = append(dst, lengthCodeMax)
	v -= lengthCodeMax
	for v >= lengthByteLimit {
		dst = append(dst, lengthByteLimit)
		v -= lengthByteLimit
	}

	return append(dst, byte(v))
}

// parseLength reads one length and returns the remaining stream.
func parseLength(src []byte) (int, []byte, error) {
	if len(src) == 0 {
		return 0, nil, ErrCorruptStream
	}

	v := int(src[0])
	src = src[1:]
	if v < lengthCodeMax {
		return v, src, nil
	}

	for {
		if len(src) == 0 {
			return 0, nil, ErrCorruptStream
		}

		b := src[0]
		src = src[1:]
		v += int(b)
		if b < lengthByteLimit {
			return v, src, nil
		}
	}
}

// sequenceStreams holds the three per-sequence streams of a coded block.
type sequenceStreams struct {
	litLens   []byte
	matchLens []byte
	offsets   []byte
}

// buildStreams serializes the parse. The trailing literal-only sequence, if
// any, stores match code 0 and offset 0; real matches never encode offset 0,
// so the decoder can tell them apart.
func buildStreams(seqs []sequence) sequenceStreams {
	var s sequenceStreams
	s.litLens = make([]byte, 0, len(seqs))
	s.matchLens = make([]byte, 0, len(seqs))
	s.offsets = make([]byte, 0, 2*len(seqs))

	for _, q := range seqs {
		s.litLens = appendLength(s.litLens, q.litLen)

		if q.offset == 0 {
			s.matchLens = appendLength(s.matchLens, 0)
			s.offsets = append(s.offsets, 0, 0)
			continue
		}

		s.matchLens = appendLength(s.matchLens, q.matchLen-MinMatch)
		s.offsets = append(s.offsets, byte(q.offset), byte(q.offset>>8))
	}

	return s
}

// replaySequences reconstructs rawLen bytes from the literal stream and the
// three sequence streams.
func replaySequences(nSeq int, literals []byte, s sequenceStreams, rawLen int) ([]byte, error) {
	out := make([]byte, 0, rawLen)
	litLens := s.litLens
	matchLens := s.matchLens
	offsets := s.offsets

	var err error
	for k := 0; k < nSeq; k++ {
		var litLen, matchCode int

		litLen, litLens, err = parseLength(litLens)
		if err != nil {
			return nil, err
		}

		matchCode, matchLens, err = parseLength(matchLens)
		if err != nil {
			return nil, err
		}

		if len(offsets) < 2 {
			return nil, ErrCorruptStream
		}
		offset := int(offsets[0]) | int(offsets[1])<<8
		offsets = offsets[2:]

		if litLen > len(literals) || len(out)+litLen > rawLen {
			return nil, ErrCorruptStream
		}
		out = append(out, literals[:litLen]...)
		literals = literals[litLen:]

		if offset == 0 {
			// Literal-only tail.
			continue
		}

		matchLen := matchCode + MinMatch
		if offset > len(out) || len(out)+matchLen > rawLen {
			return nil, ErrCorruptStream
		}

		// Overlapping copies must proceed byte by byte so repeated runs
		// (offset < matchLen) replicate correctly.
		if offset >= matchLen {
			start := len(out) - offset
			out = append(out, out[start:start+matchLen]...)
		} else {
			for m := 0; m < matchLen; m++ {
				out = append(out, out[len(out)-offset])
			}
		}
	}

	if len(out) != rawLen || len(literals) != 0 {
		return nil, ErrCorruptStream
	}

	return out, nil
}
