package block

import "errors"

var (
	// ErrCorruptStream reports a framing or entropy-table inconsistency on
	// decode: a block length exceeding the remaining input, an invalid
	// canonical code table, or an FSE table that does not sum to its size.
	// Decode is all-or-nothing; no partial result is returned.
	ErrCorruptStream = errors.New("corrupt compressed stream")

	// ErrEncodingOverflow reports an encoder configuration whose lengths or
	// offsets exceed their encodable range. It is a configuration error,
	// not a data error: compression of valid input with valid settings
	// cannot fail.
	ErrEncodingOverflow = errors.New("value exceeds encodable range")
)
