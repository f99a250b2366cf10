package block

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/squash/format"
)

var codecAlgorithms = []format.Algorithm{
	format.AlgoFastCopy,
	format.AlgoLZHuffman,
	format.AlgoLZFSE,
	format.AlgoHighRatio,
}

var codecLevels = []format.Level{
	format.LevelFastest,
	format.LevelFast,
	format.LevelDefault,
	format.LevelBest,
	format.LevelUltra,
}

func codecTestInputs() map[string][]byte {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 48<<10)
	rng.Read(random)

	text := bytes.Repeat([]byte("The block codec splits input into blocks and codes each one on its own. "), 700)

	structured := make([]byte, 0, 40<<10)
	for i := 0; i < 2048; i++ {
		structured = append(structured, byte(i), byte(i>>8), 0, 0, 'A'+byte(i%4), 0xFF, 0, 1)
	}

	return map[string][]byte{
		"empty":      nil,
		"single":     {0x42},
		"short":      []byte("tiny"),
		"run":        bytes.Repeat([]byte{'a'}, 32),
		"text":       text,
		"structured": structured,
		"random":     random,
		"zeros":      make([]byte, 20<<10),
	}
}

func TestCodecRoundTripAllAlgorithmsAndLevels(t *testing.T) {
	codec := NewCodec(nil)
	inputs := codecTestInputs()

	for _, algo := range codecAlgorithms {
		for _, level := range codecLevels {
			for name, data := range inputs {
				t.Run(algo.String()+"/"+level.String()+"/"+name, func(t *testing.T) {
					enc, err := codec.EncodeAll(data, EncodeParams{Algorithm: algo, Level: level})
					require.NoError(t, err)

					dec, err := codec.DecodeAll(enc)
					require.NoError(t, err)

					if len(data) == 0 {
						require.Empty(t, dec)
					} else {
						require.Equal(t, data, dec)
					}
				})
			}
		}
	}
}

func TestCodecShrinksRepetitiveRun(t *testing.T) {
	codec := NewCodec(nil)
	data := bytes.Repeat([]byte{'a'}, 32)

	enc, err := codec.EncodeAll(data, EncodeParams{Algorithm: format.AlgoLZHuffman, Level: format.LevelDefault})
	require.NoError(t, err)
	require.Less(t, len(enc), len(data))

	dec, err := codec.DecodeAll(enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestCodecDeterministicOutput(t *testing.T) {
	codec := NewCodec(nil)
	data := codecTestInputs()["text"]
	params := EncodeParams{Algorithm: format.AlgoLZFSE, Level: format.LevelBest}

	a, err := codec.EncodeAll(data, params)
	require.NoError(t, err)
	b, err := codec.EncodeAll(data, params)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCodecParallelMatchesSerial(t *testing.T) {
	codec := NewCodec(nil)

	data := bytes.Repeat(codecTestInputs()["structured"], 8)
	serialParams := EncodeParams{
		Algorithm: format.AlgoLZHuffman,
		Level:     format.LevelDefault,
		BlockSize: 16 << 10,
	}
	parallelParams := serialParams
	parallelParams.Parallel = true
	parallelParams.Workers = 4

	serial, err := codec.EncodeAll(data, serialParams)
	require.NoError(t, err)
	parallel, err := codec.EncodeAll(data, parallelParams)
	require.NoError(t, err)

	require.Equal(t, serial, parallel)

	dec, err := codec.DecodeAll(parallel)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestCodecOverlappingMatches(t *testing.T) {
	codec := NewCodec(nil)

	// Period-3 repetition forces match offsets shorter than match lengths,
	// exercising the byte-by-byte overlap copy on decode.
	data := bytes.Repeat([]byte{'x', 'y', 'z'}, 5000)

	for _, algo := range []format.Algorithm{format.AlgoLZHuffman, format.AlgoLZFSE, format.AlgoHighRatio} {
		enc, err := codec.EncodeAll(data, EncodeParams{Algorithm: algo, Level: format.LevelDefault})
		require.NoError(t, err)
		require.Less(t, len(enc), len(data)/10)

		dec, err := codec.DecodeAll(enc)
		require.NoError(t, err)
		require.Equal(t, data, dec)
	}
}

func TestCodecRandomInputStoredRaw(t *testing.T) {
	codec := NewCodec(nil)
	data := codecTestInputs()["random"]

	enc, err := codec.EncodeAll(data, EncodeParams{Algorithm: format.AlgoLZHuffman, Level: format.LevelDefault})
	require.NoError(t, err)

	// One raw block plus header: incompressible input never balloons.
	require.LessOrEqual(t, len(enc), len(data)+format.BlockHeaderSize)

	dec, err := codec.DecodeAll(enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestCodecBlockSizeValidation(t *testing.T) {
	codec := NewCodec(nil)

	_, err := codec.EncodeAll([]byte("data"), EncodeParams{
		Algorithm: format.AlgoLZHuffman,
		Level:     format.LevelDefault,
		BlockSize: 1000,
	})
	require.ErrorIs(t, err, ErrEncodingOverflow)

	_, err = codec.EncodeAll([]byte("data"), EncodeParams{
		Algorithm: format.AlgoLZHuffman,
		Level:     format.LevelDefault,
		BlockSize: MinBlockSize + 1,
	})
	require.ErrorIs(t, err, ErrEncodingOverflow)

	// Aligned but beyond the framing bound; rejected before any block is
	// emitted.
	_, err = codec.EncodeAll([]byte("data"), EncodeParams{
		Algorithm: format.AlgoLZHuffman,
		Level:     format.LevelDefault,
		BlockSize: MaxBlockSize + MinBlockSize,
	})
	require.ErrorIs(t, err, ErrEncodingOverflow)
}

func TestCodecSequentialEncodesStayIndependent(t *testing.T) {
	codec := NewCodec(nil)
	inputs := codecTestInputs()
	params := EncodeParams{Algorithm: format.AlgoHighRatio, Level: format.LevelBest}

	// Decode only after both encodes so streams sharing recycled scratch
	// buffers would show up as corruption of the earlier one.
	first, err := codec.EncodeAll(inputs["text"], params)
	require.NoError(t, err)
	second, err := codec.EncodeAll(inputs["structured"], params)
	require.NoError(t, err)

	dec, err := codec.DecodeAll(first)
	require.NoError(t, err)
	require.Equal(t, inputs["text"], dec)

	dec, err = codec.DecodeAll(second)
	require.NoError(t, err)
	require.Equal(t, inputs["structured"], dec)
}

func TestBlockSizeForLevels(t *testing.T) {
	require.Equal(t, 1<<20, BlockSizeFor(format.LevelFastest, format.AlgoLZHuffman))
	require.Equal(t, 64<<10, BlockSizeFor(format.LevelUltra, format.AlgoLZFSE))

	// High-ratio halves the block size at every level.
	for _, level := range codecLevels {
		require.Equal(t,
			BlockSizeFor(level, format.AlgoLZHuffman)/2,
			BlockSizeFor(level, format.AlgoHighRatio))

		require.Zero(t, BlockSizeFor(level, format.AlgoHighRatio)%MinBlockSize)
	}
}

func TestCodecCorruptStreams(t *testing.T) {
	codec := NewCodec(nil)
	data := codecTestInputs()["text"]

	enc, err := codec.EncodeAll(data, EncodeParams{Algorithm: format.AlgoLZHuffman, Level: format.LevelDefault})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{name: "empty input", mutate: func(b []byte) []byte { return nil }},
		{name: "truncated header", mutate: func(b []byte) []byte { return b[:3] }},
		{name: "truncated payload", mutate: func(b []byte) []byte { return b[:len(b)-2] }},
		{name: "missing last flag", mutate: func(b []byte) []byte {
			c := append([]byte{}, b...)
			c[4] &^= format.FlagLastBlock
			return c
		}},
		{name: "trailing garbage", mutate: func(b []byte) []byte {
			return append(append([]byte{}, b...), 0xde, 0xad)
		}},
		{name: "declared length past end", mutate: func(b []byte) []byte {
			c := append([]byte{}, b...)
			c[0] = 0xff
			c[1] = 0xff
			return c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeAll(tt.mutate(enc))
			require.ErrorIs(t, err, ErrCorruptStream)
		})
	}
}

func TestCodecEmptyInputFrame(t *testing.T) {
	codec := NewCodec(nil)

	enc, err := codec.EncodeAll(nil, EncodeParams{Algorithm: format.AlgoFastCopy, Level: format.LevelFastest})
	require.NoError(t, err)
	require.Len(t, enc, format.BlockHeaderSize)

	dec, err := codec.DecodeAll(enc)
	require.NoError(t, err)
	require.Empty(t, dec)
}
