// Package block implements the native compressed stream format: LZ77 match
// finding over fixed-size blocks followed by per-section entropy coding with
// canonical Huffman codes or a finite-state-entropy (tANS) coder.
//
// A stream is a sequence of framed blocks, each independently decodable.
// Blocks that do not shrink under coding are stored raw, so compression never
// expands a block by more than its 5-byte header. Encoding can run blocks in
// parallel; the output is byte-identical to the serial path.
package block
