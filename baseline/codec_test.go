package baseline

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/squash/format"
)

func baselineTestData() []byte {
	return bytes.Repeat([]byte("reference codecs exist to be compared against, not to win. "), 200)
}

func TestReferenceCodecsRoundTrip(t *testing.T) {
	data := baselineTestData()

	for _, ref := range Codecs() {
		t.Run(ref.String(), func(t *testing.T) {
			codec, err := GetCodec(ref)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(data))

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, restored)
		})
	}
}

func TestReferenceCodecsEmptyInput(t *testing.T) {
	for _, ref := range Codecs() {
		t.Run(ref.String(), func(t *testing.T) {
			codec, err := GetCodec(ref)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}

func TestReferenceCodecsIncompressibleInput(t *testing.T) {
	data := make([]byte, 16<<10)
	rand.New(rand.NewSource(3)).Read(data)

	for _, ref := range Codecs() {
		t.Run(ref.String(), func(t *testing.T) {
			codec, err := GetCodec(ref)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, restored)
		})
	}
}

func TestNoOpCodecPassesThrough(t *testing.T) {
	codec := NewNoOpCodec()
	data := []byte("untouched")

	out, err := codec.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, out)

	out, err = codec.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestGetCodecUnknown(t *testing.T) {
	_, err := GetCodec(format.ReferenceCodec(0xEE))
	require.Error(t, err)
}
