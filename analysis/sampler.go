package analysis

import (
	"math/rand"

	"github.com/arloliu/squash/format"
	"github.com/arloliu/squash/internal/hash"
)

// Sampler bounds. Buffers at or below SampleThreshold are analyzed in full;
// larger buffers are characterized from up to DefaultSampleCount bounded
// samples (head, tail, pseudo-random interior).
const (
	SampleThreshold    = 4 * 1024
	MinSampleSize      = 4 * 1024
	MaxSampleSize      = 64 * 1024
	DefaultSampleCount = 3

	// sampleSizeRatio scales the per-sample size with the buffer length
	// before clamping to [MinSampleSize, MaxSampleSize].
	sampleSizeRatio = 0.01
)

// AnalyzeSampled analyzes data, sampling large buffers instead of scanning
// them end to end. The sample offsets are derived deterministically from the
// buffer contents, so repeated calls on the same bytes yield identical
// characteristics.
func AnalyzeSampled(data []byte) DataCharacteristics {
	if len(data) <= SampleThreshold {
		return Analyze(data)
	}

	sampleSize := clampSampleSize(int(float64(len(data)) * sampleSizeRatio))

	offsets := sampleOffsets(data, sampleSize, DefaultSampleCount)
	samples := make([]DataCharacteristics, 0, len(offsets))
	for _, off := range offsets {
		samples = append(samples, Analyze(data[off:off+sampleSize]))
	}

	return mergeSamples(samples)
}

func clampSampleSize(size int) int {
	if size < MinSampleSize {
		return MinSampleSize
	}
	if size > MaxSampleSize {
		return MaxSampleSize
	}

	return size
}

// sampleOffsets returns sample start offsets: head, tail, then pseudo-random
// interior positions seeded from the buffer prefix so analysis stays
// deterministic for identical input.
func sampleOffsets(data []byte, sampleSize, count int) []int {
	maxOffset := len(data) - sampleSize
	if maxOffset <= 0 {
		return []int{0}
	}

	offsets := make([]int, 0, count)
	offsets = append(offsets, 0)
	if count >= 2 {
		offsets = append(offsets, maxOffset)
	}

	if count > 2 {
		seed := int64(hash.Prefix(data)) ^ int64(len(data))
		rng := rand.New(rand.NewSource(seed))
		for i := 2; i < count; i++ {
			offsets = append(offsets, rng.Intn(maxOffset+1))
		}
	}

	return offsets
}

// mergeSamples combines per-sample characteristics: scalar metrics are
// arithmetically averaged, the category is a majority vote with ties broken
// by the lowest enumerated category, and the bounded top lists are merged by
// summed counts.
func mergeSamples(samples []DataCharacteristics) DataCharacteristics {
	if len(samples) == 0 {
		return DataCharacteristics{}
	}
	if len(samples) == 1 {
		return samples[0]
	}

	var merged DataCharacteristics
	var uniqueSum int
	votes := make(map[format.DataCategory]int)

	for _, s := range samples {
		merged.Entropy += s.Entropy
		merged.PatternScore += s.PatternScore
		uniqueSum += s.UniqueByteCount
		votes[s.Category]++
	}

	n := float64(len(samples))
	merged.Entropy /= n
	merged.PatternScore /= n
	merged.UniqueByteCount = (uniqueSum + len(samples)/2) / len(samples)
	merged.Category = majorityCategory(votes)
	merged.TopBytes = mergeTopBytes(samples)
	merged.TopPatterns = mergeTopPatterns(samples)

	return merged
}

func majorityCategory(votes map[format.DataCategory]int) format.DataCategory {
	best := format.CategoryMixed
	bestVotes := -1

	// Walk categories in enumeration order so ties resolve deterministically.
	for cat := format.CategoryMixed; cat <= format.CategoryRepetitive; cat++ {
		if v := votes[cat]; v > bestVotes {
			best = cat
			bestVotes = v
		}
	}

	return best
}

func mergeTopBytes(samples []DataCharacteristics) []ByteFrequency {
	var counts [256]int
	for _, s := range samples {
		for _, bf := range s.TopBytes {
			counts[bf.Value] += bf.Count
		}
	}

	return topBytes(counts[:])
}

func mergeTopPatterns(samples []DataCharacteristics) []Pattern {
	byHash := make(map[uint64]Pattern)
	order := make([]uint64, 0)

	for _, s := range samples {
		for _, p := range s.TopPatterns {
			h := hash.Window(p.Window)
			if existing, ok := byHash[h]; ok {
				existing.Count += p.Count
				byHash[h] = existing
			} else {
				byHash[h] = p
				order = append(order, h)
			}
		}
	}

	merged := make([]Pattern, 0, len(order))
	for _, h := range order {
		merged = append(merged, byHash[h])
	}

	// Insertion-ordered input keeps equal counts stable across calls.
	for i := 1; i < len(merged); i++ {
		for j := i; j > 0 && merged[j].Count > merged[j-1].Count; j-- {
			merged[j], merged[j-1] = merged[j-1], merged[j]
		}
	}

	if len(merged) > TopN {
		merged = merged[:TopN]
	}

	return merged
}
