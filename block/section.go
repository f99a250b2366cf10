package block

import "encoding/binary"

// Section modes. Each coded block carries four sections (literals, literal
// lengths, match lengths, offsets) and every section independently picks the
// smallest representation.
const (
	sectionRaw  = 0
	sectionRLE  = 1
	sectionHuff = 2
	sectionFSE  = 3
)

// sectionCoder selects the entropy stage a section uses when neither raw nor
// run-length wins.
type sectionCoder uint8

const (
	coderHuffman sectionCoder = iota
	coderFSE
)

// appendSection encodes body as [u8 mode][uvarint rawLen][uvarint encLen][enc]
// and appends it to dst. Entropy coding is only kept when it beats the raw
// bytes; a uniform section collapses to a single run-length byte.
func appendSection(dst []byte, body []byte, coder sectionCoder) []byte {
	if len(body) == 0 {
		dst = append(dst, sectionRaw)
		dst = binary.AppendUvarint(dst, 0)
		dst = binary.AppendUvarint(dst, 0)

		return dst
	}

	if uniform(body) {
		dst = append(dst, sectionRLE)
		dst = binary.AppendUvarint(dst, uint64(len(body)))
		dst = binary.AppendUvarint(dst, 1)
		dst = append(dst, body[0])

		return dst
	}

	var enc []byte
	var ok bool
	mode := byte(sectionRaw)

	switch coder {
	case coderFSE:
		enc, ok = fseCompress(body)
		mode = sectionFSE
	default:
		enc, ok = huffCompress(body)
		mode = sectionHuff
	}

	if !ok || len(enc) >= len(body) {
		dst = append(dst, sectionRaw)
		dst = binary.AppendUvarint(dst, uint64(len(body)))
		dst = binary.AppendUvarint(dst, uint64(len(body)))
		dst = append(dst, body...)

		return dst
	}

	dst = append(dst, mode)
	dst = binary.AppendUvarint(dst, uint64(len(body)))
	dst = binary.AppendUvarint(dst, uint64(len(enc)))
	dst = append(dst, enc...)

	return dst
}

// parseSection decodes the next section from src and returns the section body
// and the remaining input.
func parseSection(src []byte) ([]byte, []byte, error) {
	if len(src) < 1 {
		return nil, nil, ErrCorruptStream
	}

	mode := src[0]
	src = src[1:]

	rawLen, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, nil, ErrCorruptStream
	}
	src = src[n:]

	encLen, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, nil, ErrCorruptStream
	}
	src = src[n:]

	if encLen > uint64(len(src)) || rawLen > maxSectionLen {
		return nil, nil, ErrCorruptStream
	}

	enc := src[:encLen]
	rest := src[encLen:]

	switch mode {
	case sectionRaw:
		if encLen != rawLen {
			return nil, nil, ErrCorruptStream
		}

		return enc, rest, nil

	case sectionRLE:
		if encLen != 1 || rawLen == 0 {
			return nil, nil, ErrCorruptStream
		}

		body := make([]byte, rawLen)
		for i := range body {
			body[i] = enc[0]
		}

		return body, rest, nil

	case sectionHuff:
		body, err := huffDecompress(enc, int(rawLen))
		if err != nil {
			return nil, nil, err
		}

		return body, rest, nil

	case sectionFSE:
		body, err := fseDecompress(enc, int(rawLen))
		if err != nil {
			return nil, nil, err
		}

		return body, rest, nil

	default:
		return nil, nil, ErrCorruptStream
	}
}

// maxSectionLen bounds a declared section size so a corrupt length cannot
// trigger an oversized allocation. Sections never exceed a few multiples of
// the largest block size.
const maxSectionLen = 8 << 20

func uniform(b []byte) bool {
	for _, c := range b[1:] {
		if c != b[0] {
			return false
		}
	}

	return true
}
