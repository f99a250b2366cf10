// Package cpu detects the widest vector execution tier usable on the host and
// resolves the hot-loop primitives the block codec runs on that tier.
//
// The tier is probed once; callers hold a resolved Kernel so the per-call cost
// is a plain function pointer, not a feature branch.
package cpu

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Tier is a vector execution width class. Higher tiers process more bytes per
// iteration in the match-extension loop.
type Tier uint8

const (
	TierScalar  Tier = 0x0 // byte-at-a-time fallback, always available
	TierWide128 Tier = 0x1 // 128-bit lanes (SSE2 class, NEON on arm64)
	TierWide256 Tier = 0x2 // 256-bit lanes (AVX2 class)
	TierWide512 Tier = 0x3 // 512-bit lanes (AVX-512 class)
)

func (t Tier) String() string {
	switch t {
	case TierScalar:
		return "scalar"
	case TierWide128:
		return "wide128"
	case TierWide256:
		return "wide256"
	case TierWide512:
		return "wide512"
	default:
		return "unknown"
	}
}

// Kernel bundles the primitives resolved for one tier.
type Kernel struct {
	Tier Tier

	// MatchLen returns the length of the longest common prefix of a and b.
	MatchLen func(a, b []byte) int
}

var (
	probeOnce sync.Once
	bestTier  Tier
)

// Detect returns the widest tier supported by the host CPU. The probe runs
// once and is cached.
func Detect() Tier {
	probeOnce.Do(func() {
		bestTier = probe()
	})

	return bestTier
}

func probe() Tier {
	switch runtime.GOARCH {
	case "amd64":
		if cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512BW) {
			return TierWide512
		}
		if cpuid.CPU.Supports(cpuid.AVX2) {
			return TierWide256
		}
		// SSE2 is part of the amd64 baseline.
		return TierWide128
	case "arm64":
		// NEON is mandatory on arm64.
		return TierWide128
	default:
		return TierScalar
	}
}

// Resolve returns the kernel for the widest tier the host supports.
func Resolve() *Kernel {
	return kernelFor(Detect())
}

// ResolveTier returns the kernel for the requested tier, silently falling back
// to the widest supported tier when the request exceeds the host's capability.
func ResolveTier(requested Tier) *Kernel {
	supported := Detect()
	if requested > supported {
		requested = supported
	}

	return kernelFor(requested)
}

func kernelFor(tier Tier) *Kernel {
	switch tier {
	case TierWide512:
		return &Kernel{Tier: tier, MatchLen: matchLenWide512}
	case TierWide256:
		return &Kernel{Tier: tier, MatchLen: matchLenWide256}
	case TierWide128:
		return &Kernel{Tier: tier, MatchLen: matchLenWide128}
	default:
		return &Kernel{Tier: TierScalar, MatchLen: matchLenScalar}
	}
}
