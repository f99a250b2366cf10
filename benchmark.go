package squash

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/arloliu/squash/baseline"
	"github.com/arloliu/squash/block"
	"github.com/arloliu/squash/format"
)

// BenchmarkResult reports one method's performance on the benchmarked buffer.
// Exactly one of Algorithm and Reference is set, depending on whether the
// entry is a native method or a reference codec.
type BenchmarkResult struct {
	// Name identifies the method ("lz77-huffman", "zstd", ...).
	Name string

	Algorithm format.Algorithm
	Reference format.ReferenceCodec

	CompressedSize int

	// Ratio is compressed size over original size.
	Ratio float64

	// Throughputs in input megabytes per second, averaged over all
	// iterations.
	CompressMBps   float64
	DecompressMBps float64
}

// Benchmark compresses and decompresses data with the requested native
// algorithms, verifies each round trip, and returns the results sorted by
// compression throughput, fastest first. An empty algorithm set benchmarks
// every native algorithm plus every reference codec. Each method runs
// iterations times and reports throughput averaged across the runs.
//
// Benchmark runs bypass method selection and leave the decision cache and
// learning store untouched.
func (e *Engine) Benchmark(data []byte, algorithms []format.Algorithm, iterations int) ([]BenchmarkResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: benchmark requires a non-empty buffer", ErrInvalidInput)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("%w: benchmark iterations must be positive, got %d", ErrInvalidInput, iterations)
	}

	natives := []format.Algorithm{
		format.AlgoFastCopy,
		format.AlgoLZHuffman,
		format.AlgoLZFSE,
		format.AlgoHighRatio,
	}

	// Reference codecs join the comparison only when the caller did not
	// narrow the run to specific algorithms.
	includeReferences := len(algorithms) == 0
	if !includeReferences {
		natives = natives[:0]
		seen := make(map[format.Algorithm]bool, len(algorithms))
		for _, algo := range algorithms {
			if algo == format.AlgoAuto || algo > format.AlgoHighRatio {
				return nil, fmt.Errorf("%w: algorithm %d cannot be benchmarked", ErrInvalidInput, algo)
			}
			if seen[algo] {
				continue
			}

			seen[algo] = true
			natives = append(natives, algo)
		}
	}

	results := make([]BenchmarkResult, 0, len(natives)+3)

	for _, algo := range natives {
		params := block.EncodeParams{
			Algorithm: algo,
			Level:     format.LevelDefault,
			Parallel:  e.parallel,
			Workers:   e.workers,
		}

		result, err := runBenchmark(data, algo.String(), iterations,
			func(src []byte) ([]byte, error) { return e.codec.EncodeAll(src, params) },
			e.codec.DecodeAll,
		)
		if err != nil {
			return nil, err
		}

		result.Algorithm = algo
		results = append(results, result)
	}

	if includeReferences {
		for _, ref := range baseline.Codecs() {
			codec, err := baseline.GetCodec(ref)
			if err != nil {
				return nil, err
			}

			result, err := runBenchmark(data, ref.String(), iterations, codec.Compress, codec.Decompress)
			if err != nil {
				return nil, err
			}

			result.Reference = ref
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompressMBps > results[j].CompressMBps
	})

	return results, nil
}

func runBenchmark(data []byte, name string, iterations int,
	compress func([]byte) ([]byte, error),
	decompress func([]byte) ([]byte, error),
) (BenchmarkResult, error) {
	var compressed []byte
	var compressTime, decompressTime time.Duration

	for i := 0; i < iterations; i++ {
		compressStart := time.Now()
		out, err := compress(data)
		compressTime += time.Since(compressStart)
		if err != nil {
			return BenchmarkResult{}, fmt.Errorf("benchmark %s: compress: %w", name, err)
		}

		decompressStart := time.Now()
		restored, err := decompress(out)
		decompressTime += time.Since(decompressStart)
		if err != nil {
			return BenchmarkResult{}, fmt.Errorf("benchmark %s: decompress: %w", name, err)
		}

		if !bytes.Equal(restored, data) {
			return BenchmarkResult{}, fmt.Errorf("benchmark %s: round trip mismatch", name)
		}

		compressed = out
	}

	processed := iterations * len(data)

	return BenchmarkResult{
		Name:           name,
		CompressedSize: len(compressed),
		Ratio:          float64(len(compressed)) / float64(len(data)),
		CompressMBps:   throughputMBps(processed, compressTime),
		DecompressMBps: throughputMBps(processed, decompressTime),
	}, nil
}

func throughputMBps(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		// Timer granularity; report the size itself rather than infinity.
		return float64(n) / 1e6
	}

	return float64(n) / 1e6 / elapsed.Seconds()
}
