package selector

import (
	"sync"

	"github.com/arloliu/squash/analysis"
	"github.com/arloliu/squash/format"
)

// Source reports which resolution path produced a decision.
type Source uint8

const (
	SourceCache     Source = 0x1 // exact cache hit
	SourceLearning  Source = 0x2 // exact or nearest-neighbor learning record
	SourceHeuristic Source = 0x3 // static heuristic table ("adaptation")
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceLearning:
		return "learning"
	case SourceHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// Selector resolves a method decision for a buffer's characteristics,
// consulting the decision cache, then the learning store, then the static
// heuristic table. Every non-cache resolution is written back into both
// stores so later calls can reuse it.
//
// The resolve-and-write-back sequence runs under a single lock so two
// concurrent callers cannot both miss and double-write divergent entries for
// the same key; last write wins on the stores themselves.
type Selector struct {
	mu       sync.Mutex
	cache    *Cache
	learning *LearningStore
}

// NewSelector creates a selector over the given shared stores.
func NewSelector(cache *Cache, learning *LearningStore) *Selector {
	return &Selector{cache: cache, learning: learning}
}

// BucketsOf discretizes characteristics into the learning key.
func BucketsOf(chars analysis.DataCharacteristics) BucketKey {
	pattern := chars.PatternScore
	if pattern > 1 {
		pattern = 1
	}

	return BucketKey{
		Entropy:     Bucket(chars.Entropy),
		UniqueBytes: Bucket(float64(chars.UniqueByteCount) / 256.0),
		Pattern:     Bucket(pattern),
	}
}

// Select resolves the decision for a buffer identified by key with the given
// characteristics. It returns the decision and the path that produced it.
func (s *Selector) Select(key CacheKey, chars analysis.DataCharacteristics) (Decision, Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if decision, ok := s.cache.Lookup(key); ok {
		return decision, SourceCache
	}

	buckets := BucketsOf(chars)

	if decision, ok := s.learning.Lookup(buckets); ok {
		s.cache.Store(key, decision, 0)
		s.learning.Observe(buckets, decision)

		return decision, SourceLearning
	}

	if decision, ok := s.learning.Nearest(buckets); ok {
		s.cache.Store(key, decision, 0)
		s.learning.Observe(buckets, decision)

		return decision, SourceLearning
	}

	decision := Heuristic(chars)
	s.cache.Store(key, decision, 0)
	s.learning.Observe(buckets, decision)

	return decision, SourceHeuristic
}

// RecordOutcome stores the achieved compression ratio for a prior decision.
func (s *Selector) RecordOutcome(key CacheKey, ratio float64) {
	s.cache.UpdateRatio(key, ratio)
}

// Heuristic applies the static category table. The entropy split points
// inside the mixed category are empirically chosen constants.
func Heuristic(chars analysis.DataCharacteristics) Decision {
	switch chars.Category {
	case format.CategoryText:
		level := format.LevelDefault
		if chars.PatternScore > 0.5 {
			level = format.LevelBest
		}

		return Decision{Algorithm: format.AlgoLZHuffman, Level: level}

	case format.CategoryBinary:
		algo := format.AlgoLZHuffman
		if chars.Entropy >= 0.7 {
			algo = format.AlgoLZFSE
		}

		return Decision{Algorithm: algo, Level: format.LevelDefault}

	case format.CategoryStructured:
		return Decision{Algorithm: format.AlgoHighRatio, Level: format.LevelDefault}

	case format.CategoryCompressed, format.CategoryImage, format.CategoryAudio:
		return Decision{Algorithm: format.AlgoFastCopy, Level: format.LevelFastest}

	case format.CategorySparse, format.CategoryRepetitive:
		return Decision{Algorithm: format.AlgoHighRatio, Level: format.LevelBest}

	case format.CategoryRandom:
		return Decision{Algorithm: format.AlgoFastCopy, Level: format.LevelFastest}

	default: // mixed
		switch {
		case chars.Entropy < 0.6:
			return Decision{Algorithm: format.AlgoLZHuffman, Level: format.LevelDefault}
		case chars.Entropy > 0.8:
			return Decision{Algorithm: format.AlgoFastCopy, Level: format.LevelFastest}
		default:
			return Decision{Algorithm: format.AlgoLZFSE, Level: format.LevelDefault}
		}
	}
}
