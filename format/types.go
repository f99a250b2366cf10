package format

type (
	Algorithm          uint8
	Level              uint8
	DataCategory       uint8
	OptimizationTarget uint8
	ReferenceCodec     uint8
)

const (
	AlgoAuto      Algorithm = 0x0 // AlgoAuto lets the engine pick the algorithm.
	AlgoFastCopy  Algorithm = 0x1 // AlgoFastCopy stores blocks without an entropy stage.
	AlgoLZHuffman Algorithm = 0x2 // AlgoLZHuffman is LZ77 matching with canonical Huffman coding.
	AlgoLZFSE     Algorithm = 0x3 // AlgoLZFSE is LZ77 matching with finite-state-entropy coding.
	AlgoHighRatio Algorithm = 0x4 // AlgoHighRatio uses smaller blocks and a split entropy stage.
)

const (
	LevelFastest Level = 0x1
	LevelFast    Level = 0x2
	LevelDefault Level = 0x3
	LevelBest    Level = 0x4
	LevelUltra   Level = 0x5
)

// DataCategory classifies a buffer by its statistical shape. CategoryMixed is
// the zero value and the fallback when no other category applies; ties in
// majority votes resolve to the lowest enumerated value.
const (
	CategoryMixed      DataCategory = 0x0
	CategoryText       DataCategory = 0x1
	CategoryBinary     DataCategory = 0x2
	CategoryStructured DataCategory = 0x3
	CategoryCompressed DataCategory = 0x4
	CategoryImage      DataCategory = 0x5
	CategoryAudio      DataCategory = 0x6
	CategorySparse     DataCategory = 0x7
	CategoryRandom     DataCategory = 0x8
	CategoryRepetitive DataCategory = 0x9
)

const (
	TargetBalanced OptimizationTarget = 0x0
	TargetSpeed    OptimizationTarget = 0x1
	TargetRatio    OptimizationTarget = 0x2
)

// Reference codecs used by the benchmark facility for baseline comparisons.
const (
	ReferenceNone ReferenceCodec = 0x1
	ReferenceLZ4  ReferenceCodec = 0x2
	ReferenceS2   ReferenceCodec = 0x3
	ReferenceZstd ReferenceCodec = 0x4
)

func (a Algorithm) String() string {
	switch a {
	case AlgoAuto:
		return "auto"
	case AlgoFastCopy:
		return "fast-copy"
	case AlgoLZHuffman:
		return "lz77-huffman"
	case AlgoLZFSE:
		return "lz77-fse"
	case AlgoHighRatio:
		return "high-ratio"
	default:
		return "unknown"
	}
}

func (l Level) String() string {
	switch l {
	case LevelFastest:
		return "fastest"
	case LevelFast:
		return "fast"
	case LevelDefault:
		return "default"
	case LevelBest:
		return "best"
	case LevelUltra:
		return "ultra"
	default:
		return "unknown"
	}
}

func (c DataCategory) String() string {
	switch c {
	case CategoryText:
		return "text"
	case CategoryBinary:
		return "binary"
	case CategoryStructured:
		return "structured"
	case CategoryCompressed:
		return "already-compressed"
	case CategoryImage:
		return "image"
	case CategoryAudio:
		return "audio"
	case CategorySparse:
		return "sparse"
	case CategoryRandom:
		return "random"
	case CategoryRepetitive:
		return "repetitive"
	case CategoryMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

func (t OptimizationTarget) String() string {
	switch t {
	case TargetSpeed:
		return "speed"
	case TargetRatio:
		return "ratio"
	case TargetBalanced:
		return "balanced"
	default:
		return "unknown"
	}
}

func (r ReferenceCodec) String() string {
	switch r {
	case ReferenceNone:
		return "none"
	case ReferenceLZ4:
		return "lz4"
	case ReferenceS2:
		return "s2"
	case ReferenceZstd:
		return "zstd"
	default:
		return "unknown"
	}
}
