package baseline

// NoOpCodec passes data through unchanged. It serves as the zero-cost
// reference point when benchmarking: any codec slower than NoOp with a worse
// ratio is strictly dominated.
//
// Both directions return the input slice as-is, sharing its memory.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
