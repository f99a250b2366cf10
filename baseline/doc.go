// Package baseline wraps well-known general-purpose codecs (LZ4, S2,
// Zstandard) behind a common interface so benchmark runs can compare the
// native block format against established reference points on the same data.
package baseline
