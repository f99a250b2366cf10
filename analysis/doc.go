// Package analysis computes the statistical characteristics that drive
// compression method selection: normalized Shannon entropy, the byte-value
// histogram, repeated-pattern density, and a data-category classification.
//
// Small buffers are analyzed in full. Buffers above SampleThreshold are
// characterized from bounded head/tail/interior samples whose metrics are
// averaged and whose categories are majority-voted, keeping analysis cost
// flat regardless of input size.
//
// Analysis is deterministic: the same bytes always produce the same
// DataCharacteristics value.
package analysis
