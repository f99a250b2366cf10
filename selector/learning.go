package selector

import (
	"sync"
)

// MaxNeighborDistance is the largest Manhattan distance over the three
// discretized dimensions at which a learning record is still accepted as a
// nearest-neighbor match.
const MaxNeighborDistance = 3

// bucketCount is the number of buckets per discretized dimension (0..10).
const bucketCount = 11

// BucketKey is the discretized characteristics triple used as the learning
// key. Each component is in [0, 10].
type BucketKey struct {
	Entropy     int
	UniqueBytes int
	Pattern     int
}

// Bucket discretizes a [0,1] metric into an 11-way bucket index.
func Bucket(value float64) int {
	if value < 0 {
		return 0
	}

	bucket := int(value * 10)
	if bucket > bucketCount-1 {
		bucket = bucketCount - 1
	}

	return bucket
}

type learningRecord struct {
	decision    Decision
	sampleCount int
}

// LearningStore accumulates past decisions keyed by discretized
// characteristics. Records are appended or incremented in place, never
// deleted individually; the state space is at most 11³ keys so the store
// needs no eviction policy.
//
// All methods are safe for concurrent use.
type LearningStore struct {
	mu      sync.Mutex
	records map[BucketKey]*learningRecord
}

// NewLearningStore creates an empty learning store.
func NewLearningStore() *LearningStore {
	return &LearningStore{
		records: make(map[BucketKey]*learningRecord),
	}
}

// Lookup returns the recorded decision for the exact bucket key.
func (s *LearningStore) Lookup(key BucketKey) (Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return Decision{}, false
	}

	return record.decision, true
}

// Nearest scans all records for the minimum Manhattan distance to key over
// the three discretized dimensions, accepting a match only when the distance
// is at most MaxNeighborDistance. Ties resolve to the record with the lower
// (entropy, uniqueBytes, pattern) key ordering so results are deterministic.
func (s *LearningStore) Nearest(key BucketKey) (Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best     BucketKey
		bestDist = MaxNeighborDistance + 1
		found    bool
	)

	for candidate := range s.records {
		dist := manhattan(key, candidate)
		if dist > MaxNeighborDistance {
			continue
		}
		if !found || dist < bestDist || (dist == bestDist && keyLess(candidate, best)) {
			best = candidate
			bestDist = dist
			found = true
		}
	}

	if !found {
		return Decision{}, false
	}

	return s.records[best].decision, true
}

// Observe records a decision outcome: an exact-bucket match increments its
// sample count in place, otherwise a new record is appended.
func (s *LearningStore) Observe(key BucketKey, decision Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[key]; ok {
		record.sampleCount++
		record.decision = decision

		return
	}

	s.records[key] = &learningRecord{decision: decision, sampleCount: 1}
}

// SampleCount returns the number of observations recorded for key.
func (s *LearningStore) SampleCount(key BucketKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[key]; ok {
		return record.sampleCount
	}

	return 0
}

// Len returns the number of distinct bucket keys recorded.
func (s *LearningStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Reset clears the store.
func (s *LearningStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[BucketKey]*learningRecord)
}

func manhattan(a, b BucketKey) int {
	return absInt(a.Entropy-b.Entropy) + absInt(a.UniqueBytes-b.UniqueBytes) + absInt(a.Pattern-b.Pattern)
}

func keyLess(a, b BucketKey) bool {
	if a.Entropy != b.Entropy {
		return a.Entropy < b.Entropy
	}
	if a.UniqueBytes != b.UniqueBytes {
		return a.UniqueBytes < b.UniqueBytes
	}

	return a.Pattern < b.Pattern
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
