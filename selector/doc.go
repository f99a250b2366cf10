// Package selector decides which compression algorithm and level to apply to
// a buffer. Resolution order: exact decision-cache hit, learning-store match
// (exact bucket, then nearest neighbor within a Manhattan distance of 3),
// static heuristic table. Non-cache resolutions are written back into both
// stores, so the engine converges on reused decisions for recurring inputs.
package selector
