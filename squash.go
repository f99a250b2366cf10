// Package squash provides adaptive compression: it analyzes the statistical
// shape of each buffer and routes it to the compression method expected to
// perform best, learning from the outcomes of past decisions.
//
// # Core Features
//
//   - Content analysis (entropy, byte histogram, repeated patterns) with
//     bounded sampling for large buffers
//   - Automatic method selection backed by a decision cache and a bucketed
//     learning store
//   - A native block format combining LZ77 matching with canonical Huffman or
//     finite-state-entropy coding, encoded block-parallel on request
//   - Runtime capability probing with silent fallback to portable kernels
//   - Built-in benchmarking against LZ4, S2, and Zstandard reference codecs
//
// # Basic Usage
//
//	engine, _ := squash.New()
//
//	result, err := engine.Compress(data)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%s level=%s ratio=%.3f\n",
//	    result.Algorithm, result.Level, result.Ratio)
//
//	original, err := engine.Decompress(result.Data)
//
// Method selection can be bypassed per call:
//
//	result, err := engine.Compress(data,
//	    squash.WithAlgorithm(format.AlgoLZFSE),
//	    squash.WithLevel(format.LevelBest))
package squash

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/squash/analysis"
	"github.com/arloliu/squash/block"
	"github.com/arloliu/squash/cpu"
	"github.com/arloliu/squash/format"
	"github.com/arloliu/squash/internal/hash"
	"github.com/arloliu/squash/internal/options"
	"github.com/arloliu/squash/selector"
	"github.com/arloliu/squash/stats"
)

var (
	// ErrInvalidInput reports unusable call parameters: an unknown algorithm,
	// a level outside the supported range, or a malformed option value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptStream mirrors block.ErrCorruptStream at the package surface.
	ErrCorruptStream = block.ErrCorruptStream

	// ErrEncodingOverflow mirrors block.ErrEncodingOverflow at the package
	// surface.
	ErrEncodingOverflow = block.ErrEncodingOverflow
)

// Engine is the adaptive compression engine. One engine owns its decision
// cache, learning store, and statistics; independent engines share nothing.
//
// All methods are safe for concurrent use.
type Engine struct {
	kernel    *cpu.Kernel
	codec     *block.Codec
	cache     *selector.Cache
	learning  *selector.LearningStore
	selector  *selector.Selector
	collector *stats.Collector

	parallel bool
	workers  int
	cacheTTL time.Duration
}

// Option configures an Engine at construction time.
type Option = options.Option[*Engine]

// WithCapabilityTier requests a specific capability tier. Tiers the host does
// not support fall back silently to the best supported one.
func WithCapabilityTier(tier cpu.Tier) Option {
	return options.NoError(func(e *Engine) {
		e.kernel = cpu.ResolveTier(tier)
	})
}

// WithParallel enables block-parallel encoding for inputs spanning several
// blocks. Output is byte-identical to serial encoding.
func WithParallel(enabled bool) Option {
	return options.NoError(func(e *Engine) {
		e.parallel = enabled
	})
}

// WithWorkers caps the number of concurrent block encoders. Zero means one
// per logical CPU.
func WithWorkers(n int) Option {
	return options.New(func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("%w: negative worker count %d", ErrInvalidInput, n)
		}
		e.workers = n

		return nil
	})
}

// WithCacheTTL sets the idle lifetime used by CleanupCache.
func WithCacheTTL(ttl time.Duration) Option {
	return options.New(func(e *Engine) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: non-positive cache TTL %v", ErrInvalidInput, ttl)
		}
		e.cacheTTL = ttl

		return nil
	})
}

// New creates an Engine with empty cache, learning store, and statistics.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		kernel:    cpu.Resolve(),
		cache:     selector.NewCache(),
		learning:  selector.NewLearningStore(),
		collector: stats.NewCollector(),
		cacheTTL:  selector.DefaultCacheTTL,
	}

	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	e.selector = selector.NewSelector(e.cache, e.learning)
	e.codec = block.NewCodec(e.kernel)

	return e, nil
}

// compressConfig holds the per-call compression settings.
type compressConfig struct {
	algorithm format.Algorithm
	level     format.Level
	blockSize int
	target    format.OptimizationTarget
}

// CompressOption configures a single Compress call.
type CompressOption = options.Option[*compressConfig]

// WithAlgorithm forces a specific algorithm, bypassing method selection.
func WithAlgorithm(algo format.Algorithm) CompressOption {
	return options.New(func(c *compressConfig) error {
		if algo > format.AlgoHighRatio {
			return fmt.Errorf("%w: unknown algorithm %d", ErrInvalidInput, algo)
		}
		c.algorithm = algo

		return nil
	})
}

// WithLevel forces a compression level, overriding the selected one.
func WithLevel(level format.Level) CompressOption {
	return options.New(func(c *compressConfig) error {
		if level < format.LevelFastest || level > format.LevelUltra {
			return fmt.Errorf("%w: level %d out of range", ErrInvalidInput, level)
		}
		c.level = level

		return nil
	})
}

// WithBlockSize overrides the level-derived block size. The size must be a
// positive multiple of block.MinBlockSize, no larger than block.MaxBlockSize.
func WithBlockSize(size int) CompressOption {
	return options.New(func(c *compressConfig) error {
		if size <= 0 {
			return fmt.Errorf("%w: non-positive block size %d", ErrInvalidInput, size)
		}
		c.blockSize = size

		return nil
	})
}

// WithTarget biases the selected method toward speed or ratio. It adjusts
// automatic decisions only; explicit WithAlgorithm/WithLevel settings win.
func WithTarget(target format.OptimizationTarget) CompressOption {
	return options.New(func(c *compressConfig) error {
		if target > format.TargetRatio {
			return fmt.Errorf("%w: unknown optimization target %d", ErrInvalidInput, target)
		}
		c.target = target

		return nil
	})
}

// CompressionResult carries the compressed stream and the metadata of the
// decision that produced it.
type CompressionResult struct {
	// Data is the framed compressed stream, decodable by any Engine.
	Data []byte

	// Algorithm and Level are the method actually used.
	Algorithm format.Algorithm
	Level     format.Level

	OriginalSize   int
	CompressedSize int

	// Ratio is CompressedSize/OriginalSize; 1.0 for empty input.
	Ratio float64

	// Characteristics is the content analysis the decision was based on.
	Characteristics analysis.DataCharacteristics

	// Elapsed is the wall time of the compress call.
	Elapsed time.Duration
}

// Compress analyzes data, selects a method (unless one is forced via
// options), and returns the compressed stream with decision metadata.
//
// Empty input yields an empty stream with ratio 1.0; Decompress of an empty
// stream returns empty output.
func (e *Engine) Compress(data []byte, opts ...CompressOption) (*CompressionResult, error) {
	cfg := &compressConfig{algorithm: format.AlgoAuto}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return &CompressionResult{Ratio: 1.0}, nil
	}

	start := time.Now()
	chars := analysis.AnalyzeSampled(data)

	decision, key, tracked := e.resolveDecision(data, chars, cfg)

	params := block.EncodeParams{
		Algorithm: decision.Algorithm,
		Level:     decision.Level,
		BlockSize: cfg.blockSize,
		Parallel:  e.parallel,
		Workers:   e.workers,
	}

	encoded, err := e.codec.EncodeAll(data, params)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	ratio := float64(len(encoded)) / float64(len(data))

	e.collector.RecordCompression(decision.Algorithm, len(data), len(encoded), elapsed)
	if tracked {
		e.selector.RecordOutcome(key, ratio)
	}

	return &CompressionResult{
		Data:            encoded,
		Algorithm:       decision.Algorithm,
		Level:           decision.Level,
		OriginalSize:    len(data),
		CompressedSize:  len(encoded),
		Ratio:           ratio,
		Characteristics: chars,
		Elapsed:         elapsed,
	}, nil
}

// resolveDecision produces the (algorithm, level) pair for one call. The
// selection machinery only participates when the algorithm is automatic;
// forced algorithms never touch the cache or learning store.
func (e *Engine) resolveDecision(data []byte, chars analysis.DataCharacteristics, cfg *compressConfig) (selector.Decision, selector.CacheKey, bool) {
	if cfg.algorithm != format.AlgoAuto {
		level := cfg.level
		if level == 0 {
			level = format.LevelDefault
		}

		return selector.Decision{Algorithm: cfg.algorithm, Level: level}, selector.CacheKey{}, false
	}

	key := selector.CacheKey{
		PrefixHash:    hash.Prefix(data),
		Size:          len(data),
		EntropyBucket: selector.Bucket(chars.Entropy),
	}

	decision, source := e.selector.Select(key, chars)

	if source == selector.SourceCache {
		e.collector.RecordCacheHit()
	} else {
		e.collector.RecordCacheMiss(source == selector.SourceHeuristic)
	}

	decision = adjustForTarget(decision, cfg.target)
	if cfg.level != 0 {
		decision.Level = cfg.level
	}

	return decision, key, true
}

// adjustForTarget biases an automatic decision: speed steps the level down
// and avoids the high-ratio mode, ratio steps the level up.
func adjustForTarget(d selector.Decision, target format.OptimizationTarget) selector.Decision {
	switch target {
	case format.TargetSpeed:
		if d.Level > format.LevelFastest {
			d.Level--
		}
		if d.Algorithm == format.AlgoHighRatio {
			d.Algorithm = format.AlgoLZHuffman
		}
	case format.TargetRatio:
		if d.Level < format.LevelUltra {
			d.Level++
		}
	}

	return d
}

// Decompress restores the original bytes from a stream produced by Compress.
// Corrupted or truncated streams return ErrCorruptStream with no partial
// output; an empty stream returns empty output.
func (e *Engine) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	start := time.Now()

	out, err := e.codec.DecodeAll(data)
	if err != nil {
		return nil, err
	}

	e.collector.RecordDecompression(time.Since(start))

	return out, nil
}

// AnalyzeCharacteristics returns the content analysis for data without
// compressing it. Large buffers are sampled, identically to Compress.
func (e *Engine) AnalyzeCharacteristics(data []byte) analysis.DataCharacteristics {
	return analysis.AnalyzeSampled(data)
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() stats.Snapshot {
	return e.collector.Snapshot()
}

// ResetStats zeroes all counters.
func (e *Engine) ResetStats() {
	e.collector.Reset()
}

// ResetLearning discards the decision cache and the learning store, returning
// selection to the static heuristic table.
func (e *Engine) ResetLearning() {
	e.cache.Reset()
	e.learning.Reset()
}

// CleanupCache evicts decision-cache entries idle longer than the configured
// TTL and returns the number evicted.
func (e *Engine) CleanupCache() int {
	return e.cache.Cleanup(e.cacheTTL)
}

// CapabilityTier reports the capability tier the engine's kernels run at.
func (e *Engine) CapabilityTier() cpu.Tier {
	return e.kernel.Tier
}
