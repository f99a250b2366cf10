package squash

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/squash/format"
)

func TestBenchmarkRunsAllMethods(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("benchmark corpus with enough repetition to compress well "), 500)

	results, err := engine.Benchmark(data, nil, 1)
	require.NoError(t, err)
	require.Len(t, results, 7)

	names := make(map[string]bool, len(results))
	for _, r := range results {
		require.NotEmpty(t, r.Name)
		require.False(t, names[r.Name], "duplicate entry %s", r.Name)
		names[r.Name] = true

		require.Positive(t, r.Ratio)
		require.Positive(t, r.CompressMBps)
		require.Positive(t, r.DecompressMBps)

		// Exactly one of the two identifiers is set.
		native := r.Algorithm != format.AlgoAuto
		reference := r.Reference != 0
		require.NotEqual(t, native, reference, "entry %s", r.Name)
	}

	require.True(t, names[format.AlgoFastCopy.String()])
	require.True(t, names[format.AlgoHighRatio.String()])
	require.True(t, names[format.ReferenceZstd.String()])
}

func TestBenchmarkAlgorithmSubset(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("subset runs benchmark only the named native methods "), 400)

	subset := []format.Algorithm{format.AlgoLZFSE, format.AlgoFastCopy}

	results, err := engine.Benchmark(data, subset, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	names := make(map[string]bool, len(results))
	for _, r := range results {
		names[r.Name] = true

		// Narrowed runs are native-only; no reference codec entries.
		require.NotEqual(t, format.AlgoAuto, r.Algorithm)
		require.Zero(t, r.Reference)
		require.Positive(t, r.CompressMBps)
		require.Positive(t, r.DecompressMBps)
	}

	require.True(t, names[format.AlgoLZFSE.String()])
	require.True(t, names[format.AlgoFastCopy.String()])
}

func TestBenchmarkDeduplicatesAlgorithms(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("duplicates in the requested set collapse to one entry "), 200)

	subset := []format.Algorithm{format.AlgoLZHuffman, format.AlgoLZHuffman, format.AlgoLZHuffman}

	results, err := engine.Benchmark(data, subset, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, format.AlgoLZHuffman, results[0].Algorithm)
}

func TestBenchmarkMultipleIterations(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("averaging across iterations smooths the throughput numbers "), 300)

	single, err := engine.Benchmark(data, []format.Algorithm{format.AlgoLZHuffman}, 1)
	require.NoError(t, err)
	repeated, err := engine.Benchmark(data, []format.Algorithm{format.AlgoLZHuffman}, 5)
	require.NoError(t, err)

	// Encoding is deterministic, so size and ratio do not depend on the
	// iteration count.
	require.Equal(t, single[0].CompressedSize, repeated[0].CompressedSize)
	require.Equal(t, single[0].Ratio, repeated[0].Ratio)
	require.Positive(t, repeated[0].CompressMBps)
	require.Positive(t, repeated[0].DecompressMBps)
}

func TestBenchmarkSortedByCompressThroughput(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("sorted output, fastest first. "), 2000)

	results, err := engine.Benchmark(data, nil, 1)
	require.NoError(t, err)

	sorted := sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].CompressMBps > results[j].CompressMBps
	})
	require.True(t, sorted)
}

func TestBenchmarkInvalidArguments(t *testing.T) {
	engine := newTestEngine(t)
	data := []byte("valid buffer")

	_, err := engine.Benchmark(nil, nil, 1)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Benchmark(data, nil, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Benchmark(data, nil, -3)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Benchmark(data, []format.Algorithm{format.AlgoAuto}, 1)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Benchmark(data, []format.Algorithm{format.Algorithm(42)}, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBenchmarkDoesNotTouchSelection(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte("selection state must stay untouched by benchmark runs "), 400)

	_, err := engine.Benchmark(data, nil, 2)
	require.NoError(t, err)

	snap := engine.Stats()
	require.Zero(t, snap.CacheHits+snap.CacheMisses)
}
