// Package hash provides the xxHash64 helpers used for decision-cache keys
// and repeated-pattern detection.
package hash

import "github.com/cespare/xxhash/v2"

// PrefixLen is the number of leading bytes hashed into a cache prefix key.
const PrefixLen = 64

// Prefix computes the xxHash64 of up to the first PrefixLen bytes of data.
// Together with the buffer size and entropy bucket it identifies a buffer
// for decision-cache purposes.
func Prefix(data []byte) uint64 {
	if len(data) > PrefixLen {
		data = data[:PrefixLen]
	}

	return xxhash.Sum64(data)
}

// Window computes the xxHash64 of a fixed-size pattern window.
func Window(window []byte) uint64 {
	return xxhash.Sum64(window)
}
