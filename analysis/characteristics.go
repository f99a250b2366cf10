package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/arloliu/squash/format"
	"github.com/arloliu/squash/internal/hash"
)

// Analyzer thresholds. The entropy/pattern split points are empirically
// chosen; they are kept as named constants rather than re-derived.
const (
	// PatternWindowSize is the width of the sliding window used for
	// repeated-pattern detection.
	PatternWindowSize = 8

	// PatternMinCount is the minimum number of occurrences for a window to
	// count as a repeated pattern.
	PatternMinCount = 4

	// TopN bounds the retained top-byte and top-pattern lists.
	TopN = 10

	// magicMinLen is the minimum buffer length for container sniffing.
	magicMinLen = 12

	entropyLow  = 0.05
	entropyMid  = 0.5
	entropyHigh = 0.8

	patternLow  = 0.3
	patternMid  = 0.5
	patternHigh = 0.7

	randomUniqueMin = 230
	printableMin    = 0.9
	sparseZeroShare = 0.5
)

// ByteFrequency is one entry of the top-byte list.
type ByteFrequency struct {
	Value byte
	Count int
}

// Pattern is a repeated fixed-width window and its occurrence count.
type Pattern struct {
	Window []byte
	Count  int
}

// DataCharacteristics summarizes the statistical shape of a buffer. It is
// computed fresh per call and never mutated afterwards.
type DataCharacteristics struct {
	// Entropy is the Shannon entropy of the byte histogram normalized by 8
	// bits, in [0, 1].
	Entropy float64

	// UniqueByteCount is the number of distinct byte values present.
	UniqueByteCount int

	// PatternScore is the fraction of the buffer covered by retained
	// repeated windows.
	PatternScore float64

	// Category is the classification derived from the metrics above, with
	// container signatures taking precedence.
	Category format.DataCategory

	// TopBytes lists the most frequent byte values, descending by count,
	// ties broken by ascending byte value. At most TopN entries.
	TopBytes []ByteFrequency

	// TopPatterns lists the most frequent repeated windows, descending by
	// count. At most TopN entries.
	TopPatterns []Pattern
}

func (c DataCharacteristics) String() string {
	return fmt.Sprintf("entropy=%.3f unique=%d pattern=%.3f category=%s",
		c.Entropy, c.UniqueByteCount, c.PatternScore, c.Category)
}

// Analyze computes the characteristics of data in full. Empty input yields
// the zero value (entropy 0, no unique bytes, CategoryMixed).
func Analyze(data []byte) DataCharacteristics {
	if len(data) == 0 {
		return DataCharacteristics{}
	}

	var histogram [256]int
	for _, b := range data {
		histogram[b]++
	}

	chars := DataCharacteristics{
		Entropy:         normalizedEntropy(histogram[:], len(data)),
		UniqueByteCount: countUnique(histogram[:]),
		TopBytes:        topBytes(histogram[:]),
	}
	chars.PatternScore, chars.TopPatterns = detectPatterns(data)

	if cat, ok := sniffContainer(data); ok {
		chars.Category = cat
		return chars
	}

	chars.Category = classify(chars, histogram[:], len(data))

	return chars
}

// normalizedEntropy computes Shannon entropy over the histogram, divided by
// the 8-bit maximum so the result lands in [0, 1].
func normalizedEntropy(histogram []int, total int) float64 {
	var entropy float64
	for _, count := range histogram {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}

	return entropy / 8.0
}

func countUnique(histogram []int) int {
	unique := 0
	for _, count := range histogram {
		if count > 0 {
			unique++
		}
	}

	return unique
}

func topBytes(histogram []int) []ByteFrequency {
	freqs := make([]ByteFrequency, 0, 256)
	for v, count := range histogram {
		if count > 0 {
			freqs = append(freqs, ByteFrequency{Value: byte(v), Count: count})
		}
	}

	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}

		return freqs[i].Value < freqs[j].Value
	})

	if len(freqs) > TopN {
		freqs = freqs[:TopN]
	}

	return freqs
}

type patternBucket struct {
	first int // offset of the first occurrence, for deterministic ordering
	count int
}

// detectPatterns slides a PatternWindowSize window over data, counting window
// occurrences by hash. Windows seen at least PatternMinCount times are
// retained; the score is the fraction of the buffer their occurrences cover.
func detectPatterns(data []byte) (float64, []Pattern) {
	if len(data) < PatternWindowSize {
		return 0, nil
	}

	buckets := make(map[uint64]*patternBucket)
	for i := 0; i+PatternWindowSize <= len(data); i++ {
		h := hash.Window(data[i : i+PatternWindowSize])
		if b, ok := buckets[h]; ok {
			b.count++
		} else {
			buckets[h] = &patternBucket{first: i, count: 1}
		}
	}

	repeated := make([]*patternBucket, 0, len(buckets))
	for _, b := range buckets {
		if b.count >= PatternMinCount {
			repeated = append(repeated, b)
		}
	}

	sort.Slice(repeated, func(i, j int) bool {
		if repeated[i].count != repeated[j].count {
			return repeated[i].count > repeated[j].count
		}

		return repeated[i].first < repeated[j].first
	})

	if len(repeated) > TopN {
		repeated = repeated[:TopN]
	}

	covered := 0
	patterns := make([]Pattern, 0, len(repeated))
	for _, b := range repeated {
		window := make([]byte, PatternWindowSize)
		copy(window, data[b.first:b.first+PatternWindowSize])
		patterns = append(patterns, Pattern{Window: window, Count: b.count})
		covered += b.count * PatternWindowSize
	}

	score := float64(covered) / float64(len(data))

	return score, patterns
}

// classify applies the statistical decision table. Container sniffing has
// already been given precedence by the caller.
func classify(chars DataCharacteristics, histogram []int, total int) format.DataCategory {
	zeroShare := float64(histogram[0]) / float64(total)
	printable := printableShare(histogram, total)

	switch {
	case chars.Entropy < entropyLow && zeroShare > sparseZeroShare:
		return format.CategorySparse
	case chars.Entropy < entropyLow:
		return format.CategoryRepetitive
	case chars.PatternScore > patternHigh && chars.Entropy < entropyMid:
		return format.CategoryRepetitive
	case chars.Entropy > entropyHigh && chars.UniqueByteCount > randomUniqueMin:
		return format.CategoryRandom
	case printable > printableMin:
		return format.CategoryText
	case chars.PatternScore > patternLow && chars.Entropy < entropyMid:
		return format.CategoryStructured
	case chars.Entropy >= entropyMid && chars.Entropy <= entropyHigh:
		return format.CategoryBinary
	default:
		return format.CategoryMixed
	}
}

func printableShare(histogram []int, total int) float64 {
	printable := histogram['\t'] + histogram['\n'] + histogram['\r']
	for v := 0x20; v < 0x7f; v++ {
		printable += histogram[v]
	}

	return float64(printable) / float64(total)
}
