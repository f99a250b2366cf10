package cpu

import (
	"encoding/binary"
	"math/bits"
)

// The wide kernels compare power-of-two chunks of 8-byte words per iteration.
// The loop bodies are written so the compiler can keep the loads in vector
// registers; the XOR + trailing-zeros tail pinpoints the first mismatching
// byte without a second scan.

func matchLenScalar(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}

	return n
}

// matchLenWords compares `words` 8-byte words per iteration.
func matchLenWords(a, b []byte, words int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	chunk := words * 8
	i := 0

	for i+chunk <= n {
		for w := 0; w < words; w++ {
			off := i + w*8
			x := binary.LittleEndian.Uint64(a[off:]) ^ binary.LittleEndian.Uint64(b[off:])
			if x != 0 {
				return off + bits.TrailingZeros64(x)/8
			}
		}
		i += chunk
	}

	for i+8 <= n {
		x := binary.LittleEndian.Uint64(a[i:]) ^ binary.LittleEndian.Uint64(b[i:])
		if x != 0 {
			return i + bits.TrailingZeros64(x)/8
		}
		i += 8
	}

	for i < n {
		if a[i] != b[i] {
			return i
		}
		i++
	}

	return n
}

func matchLenWide128(a, b []byte) int {
	return matchLenWords(a, b, 2)
}

func matchLenWide256(a, b []byte) int {
	return matchLenWords(a, b, 4)
}

func matchLenWide512(a, b []byte) int {
	return matchLenWords(a, b, 8)
}
