package squash

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/squash/cpu"
	"github.com/arloliu/squash/format"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	engine, err := New(opts...)
	require.NoError(t, err)

	return engine
}

func testPayloads() map[string][]byte {
	rng := rand.New(rand.NewSource(11))
	random := make([]byte, 64<<10)
	rng.Read(random)

	text := bytes.Repeat([]byte("Adaptive engines should never lose a byte, whatever the input looks like. "), 900)

	records := make([]byte, 0, 64<<10)
	for i := 0; i < 4096; i++ {
		records = append(records, byte(i), byte(i>>8), 0, 0, 0, 0, 'R', byte(i%16))
	}

	return map[string][]byte{
		"text":       text,
		"records":    records,
		"random":     random,
		"zeros":      make([]byte, 32<<10),
		"short run":  bytes.Repeat([]byte{'a'}, 32),
		"single":     {0x7f},
		"small text": []byte("hello, world"),
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	engine := newTestEngine(t)

	for name, data := range testPayloads() {
		t.Run(name, func(t *testing.T) {
			result, err := engine.Compress(data)
			require.NoError(t, err)
			require.Equal(t, len(data), result.OriginalSize)
			require.Equal(t, len(result.Data), result.CompressedSize)

			restored, err := engine.Decompress(result.Data)
			require.NoError(t, err)
			require.Equal(t, data, restored)
		})
	}
}

func TestCompressEmptyInput(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Compress(nil)
	require.NoError(t, err)
	require.Empty(t, result.Data)
	require.Zero(t, result.CompressedSize)
	require.Equal(t, 1.0, result.Ratio)

	restored, err := engine.Decompress(result.Data)
	require.NoError(t, err)
	require.Empty(t, restored)
}

func TestCompressShortRepetitiveRun(t *testing.T) {
	engine := newTestEngine(t)
	data := bytes.Repeat([]byte{'a'}, 32)

	result, err := engine.Compress(data)
	require.NoError(t, err)
	require.Less(t, result.CompressedSize, len(data))
	require.Equal(t, format.CategoryRepetitive, result.Characteristics.Category)
	require.Zero(t, result.Characteristics.Entropy)

	restored, err := engine.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestCompressDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	data := testPayloads()["text"]

	first, err := engine.Compress(data)
	require.NoError(t, err)
	second, err := engine.Compress(data)
	require.NoError(t, err)

	require.Equal(t, first.Data, second.Data)
	require.Equal(t, first.Algorithm, second.Algorithm)
	require.Equal(t, first.Level, second.Level)
}

func TestRepeatedCompressHitsCache(t *testing.T) {
	engine := newTestEngine(t)
	data := testPayloads()["records"]

	_, err := engine.Compress(data)
	require.NoError(t, err)

	snap := engine.Stats()
	require.Equal(t, uint64(0), snap.CacheHits)
	require.Equal(t, uint64(1), snap.CacheMisses)

	_, err = engine.Compress(data)
	require.NoError(t, err)

	snap = engine.Stats()
	require.Equal(t, uint64(1), snap.CacheHits)
	require.Equal(t, uint64(1), snap.CacheMisses)
}

func TestForcedAlgorithmBypassesSelection(t *testing.T) {
	engine := newTestEngine(t)
	data := testPayloads()["text"]

	result, err := engine.Compress(data,
		WithAlgorithm(format.AlgoLZFSE),
		WithLevel(format.LevelUltra))
	require.NoError(t, err)
	require.Equal(t, format.AlgoLZFSE, result.Algorithm)
	require.Equal(t, format.LevelUltra, result.Level)

	// Forced methods never touch the decision cache.
	snap := engine.Stats()
	require.Zero(t, snap.CacheHits+snap.CacheMisses)

	restored, err := engine.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestOptimizationTargetBiasesDecision(t *testing.T) {
	data := testPayloads()["text"]

	balanced := newTestEngine(t)
	base, err := balanced.Compress(data)
	require.NoError(t, err)

	speed := newTestEngine(t)
	fast, err := speed.Compress(data, WithTarget(format.TargetSpeed))
	require.NoError(t, err)
	require.LessOrEqual(t, fast.Level, base.Level)
	require.NotEqual(t, format.AlgoHighRatio, fast.Algorithm)

	ratio := newTestEngine(t)
	tight, err := ratio.Compress(data, WithTarget(format.TargetRatio))
	require.NoError(t, err)
	require.GreaterOrEqual(t, tight.Level, base.Level)
}

func TestInvalidOptions(t *testing.T) {
	engine := newTestEngine(t)
	data := []byte("x")

	_, err := engine.Compress(data, WithLevel(format.Level(9)))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Compress(data, WithAlgorithm(format.Algorithm(42)))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Compress(data, WithBlockSize(-4096))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Compress(data, WithTarget(format.OptimizationTarget(7)))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(WithWorkers(-1))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(WithCacheTTL(0))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMisalignedBlockSizeFailsEncoding(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Compress(testPayloads()["text"], WithBlockSize(5000))
	require.ErrorIs(t, err, ErrEncodingOverflow)
}

func TestDecompressCorruptStream(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Compress(testPayloads()["text"])
	require.NoError(t, err)

	_, err = engine.Decompress(result.Data[:len(result.Data)-3])
	require.ErrorIs(t, err, ErrCorruptStream)

	_, err = engine.Decompress([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrCorruptStream)
}

func TestParallelEngineMatchesSerial(t *testing.T) {
	data := bytes.Repeat(testPayloads()["records"], 8)

	serial := newTestEngine(t)
	parallel := newTestEngine(t, WithParallel(true), WithWorkers(4))

	opts := []CompressOption{
		WithAlgorithm(format.AlgoLZHuffman),
		WithLevel(format.LevelUltra),
	}

	a, err := serial.Compress(data, opts...)
	require.NoError(t, err)
	b, err := parallel.Compress(data, opts...)
	require.NoError(t, err)
	require.Equal(t, a.Data, b.Data)

	restored, err := parallel.Decompress(b.Data)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestCapabilityTierFallback(t *testing.T) {
	engine := newTestEngine(t, WithCapabilityTier(cpu.TierWide512))
	require.LessOrEqual(t, engine.CapabilityTier(), cpu.Detect())

	data := testPayloads()["text"]
	result, err := engine.Compress(data)
	require.NoError(t, err)

	restored, err := engine.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestAnalyzeCharacteristics(t *testing.T) {
	engine := newTestEngine(t)

	chars := engine.AnalyzeCharacteristics(testPayloads()["text"])
	require.Equal(t, format.CategoryText, chars.Category)
	require.Greater(t, chars.Entropy, 0.0)
	require.NotEmpty(t, chars.TopBytes)
}

func TestResetLearningAndStats(t *testing.T) {
	engine := newTestEngine(t)
	data := testPayloads()["records"]

	_, err := engine.Compress(data)
	require.NoError(t, err)

	engine.ResetLearning()

	// With cache and learning store gone, the same buffer falls back to the
	// static heuristic table again.
	_, err = engine.Compress(data)
	require.NoError(t, err)

	snap := engine.Stats()
	require.Equal(t, uint64(2), snap.Adaptations)

	engine.ResetStats()
	require.Zero(t, engine.Stats().Compressions)
}

func TestStatsAccumulate(t *testing.T) {
	engine := newTestEngine(t)
	data := testPayloads()["text"]

	result, err := engine.Compress(data)
	require.NoError(t, err)
	_, err = engine.Decompress(result.Data)
	require.NoError(t, err)

	snap := engine.Stats()
	require.Equal(t, uint64(1), snap.Compressions)
	require.Equal(t, uint64(1), snap.Decompressions)
	require.Equal(t, uint64(len(data)), snap.BytesIn)
	require.Equal(t, uint64(result.CompressedSize), snap.BytesOut)
	require.Equal(t, uint64(1), snap.MethodUsage[result.Algorithm])
	require.Positive(t, snap.CompressTime)
}
