package block

import (
	"encoding/binary"

	"github.com/arloliu/squash/cpu"
	"github.com/arloliu/squash/format"
)

// LZ77 match finder. A single-slot hash table over 4-byte prefixes yields
// greedy matches within a 64 KiB sliding window; higher levels use a larger
// table and index every position inside emitted matches, trading speed for
// match density.
const (
	// MinMatch is the shortest match worth a sequence; shorter repeats cost
	// more to encode than to copy literally.
	MinMatch = 4

	// MaxOffset is the sliding-window size; offsets are stored in two bytes.
	MaxOffset = 65535
)

// sequence is one parse step: litLen literals followed by a back-reference.
// The final sequence of a block may carry only literals, marked by offset 0.
type sequence struct {
	litLen   int
	matchLen int
	offset   int
}

// hashLogFor sizes the match table per level. Larger tables see farther back
// at the cost of cache pressure.
func hashLogFor(level format.Level) uint {
	switch level {
	case format.LevelFastest, format.LevelFast:
		return 14
	case format.LevelDefault:
		return 15
	default:
		return 16
	}
}

func hash4(v uint32, hashLog uint) uint32 {
	return (v * 2654435761) >> (32 - hashLog)
}

// findSequences greedily parses src into sequences and collects the literal
// bytes in emission order. Match extension runs through the resolved kernel
// so wide compares are used where the host supports them.
func findSequences(src []byte, level format.Level, kernel *cpu.Kernel) ([]sequence, []byte) {
	n := len(src)
	if n < MinMatch {
		if n == 0 {
			return nil, nil
		}

		return []sequence{{litLen: n}}, src
	}

	hashLog := hashLogFor(level)
	table := make([]int32, 1<<hashLog)
	for i := range table {
		table[i] = -1
	}

	seqs := make([]sequence, 0, n/32+1)
	literals := make([]byte, 0, n/4)

	anchor := 0
	i := 0
	limit := n - MinMatch

	for i <= limit {
		v := binary.LittleEndian.Uint32(src[i:])
		h := hash4(v, hashLog)
		cand := int(table[h])
		table[h] = int32(i)

		if cand < 0 || i-cand > MaxOffset || binary.LittleEndian.Uint32(src[cand:]) != v {
			i++
			continue
		}

		matchLen := MinMatch + kernel.MatchLen(src[cand+MinMatch:], src[i+MinMatch:])

		literals = append(literals, src[anchor:i]...)
		seqs = append(seqs, sequence{
			litLen:   i - anchor,
			matchLen: matchLen,
			offset:   i - cand,
		})

		// Index the interior of the match so later occurrences of its
		// substrings are still found.
		end := i + matchLen
		for p := i + 1; p < end && p <= limit; p++ {
			table[hash4(binary.LittleEndian.Uint32(src[p:]), hashLog)] = int32(p)
		}

		i = end
		anchor = end
	}

	if anchor < n {
		literals = append(literals, src[anchor:]...)
		seqs = append(seqs, sequence{litLen: n - anchor})
	}

	return seqs, literals
}
